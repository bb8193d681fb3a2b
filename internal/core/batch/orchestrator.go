// Package batch turns N (face, GIF) pairs into N independently tracked swap
// jobs with progressive, index-stable results. Partial failure is normal
// operation: one pair failing never aborts its siblings.
package batch

import (
	"context"
	"fmt"
	"sync"

	"gifswap/internal/apperror"
	"gifswap/internal/core/provider"
	"gifswap/internal/logger"
)

// Pair is one (source face image, target GIF URL) unit of work. Shared-face
// and per-item modes are resolved by the caller before a batch starts; the
// orchestrator treats every batch as a flat pair list.
type Pair struct {
	TargetGifURL string
	SourceImage  string
}

type SlotState string

const (
	SlotPending   SlotState = "pending"
	SlotSucceeded SlotState = "succeeded"
	SlotFailed    SlotState = "failed"
)

// Slot is the result placeholder for one pair, indexed identically to the
// input. A slot only moves pending → succeeded|failed, never backward.
type Slot struct {
	State     SlotState
	MediaURL  string
	ErrorKind apperror.Kind
}

// Progress is published after every terminal slot resolution.
type Progress struct {
	CompletedCount int
	Total          int
	StatusText     string
	Slots          []Slot
}

// Runner resolves one pair end to end (submit + poll). Implemented by
// swap.Service.
type Runner interface {
	Run(ctx context.Context, sourceImage, targetGifURL string) (*provider.SwapJob, error)
}

type Orchestrator struct {
	runner      Runner
	parallelism int
	log         *logger.Logger
}

// NewOrchestrator creates an orchestrator. parallelism 1 gives the strictly
// sequential order; up to 4 workers are allowed, and slot placement stays
// index-stable either way.
func NewOrchestrator(runner Runner, parallelism int) *Orchestrator {
	if parallelism < 1 {
		parallelism = 1
	}
	if parallelism > 4 {
		parallelism = 4
	}
	return &Orchestrator{runner: runner, parallelism: parallelism, log: logger.New("Batch")}
}

// Run processes every pair and returns the final slot array. publish may be
// nil. An empty batch completes immediately with an empty result and no
// remote calls.
func (o *Orchestrator) Run(ctx context.Context, pairs []Pair, publish func(Progress)) []Slot {
	slots := make([]Slot, len(pairs))
	for i := range slots {
		slots[i] = Slot{State: SlotPending}
	}
	if len(pairs) == 0 {
		return slots
	}

	if o.parallelism == 1 {
		o.runSequential(ctx, pairs, slots, publish)
	} else {
		o.runBounded(ctx, pairs, slots, publish)
	}
	return slots
}

func (o *Orchestrator) runSequential(ctx context.Context, pairs []Pair, slots []Slot, publish func(Progress)) {
	completed := 0
	for i, pair := range pairs {
		slots[i] = o.resolve(ctx, i, pair)
		completed++
		o.publish(publish, completed, i, slots)
	}
}

func (o *Orchestrator) runBounded(ctx context.Context, pairs []Pair, slots []Slot, publish func(Progress)) {
	sem := make(chan struct{}, o.parallelism)
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	for i, pair := range pairs {
		wg.Add(1)
		go func(i int, pair Pair) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			slot := o.resolve(ctx, i, pair)

			mu.Lock()
			slots[i] = slot
			completed++
			snapshot := make([]Slot, len(slots))
			copy(snapshot, slots)
			// Publish inside the lock: a later snapshot must never overtake an
			// earlier one, or completedCount regresses for readers.
			o.publish(publish, completed, i, snapshot)
			mu.Unlock()
		}(i, pair)
	}
	wg.Wait()
}

// resolve drives one pair to a terminal slot. Every failure path lands in a
// failed slot with a classified kind; nothing escapes as a plain error.
func (o *Orchestrator) resolve(ctx context.Context, index int, pair Pair) Slot {
	// A pair without an assigned face fails immediately rather than inheriting
	// a default face from a sibling.
	if pair.SourceImage == "" {
		return Slot{State: SlotFailed, ErrorKind: apperror.KindBadRequest}
	}

	job, err := o.runner.Run(ctx, pair.SourceImage, pair.TargetGifURL)
	if err != nil {
		kind := apperror.KindOf(err)
		o.log.LogWarnf("pair %d failed (%s): %v", index, kind, err)
		return Slot{State: SlotFailed, ErrorKind: kind}
	}

	switch job.State {
	case provider.StateSucceeded:
		if job.OutputURL == "" {
			return Slot{State: SlotFailed, ErrorKind: apperror.KindModelError}
		}
		return Slot{State: SlotSucceeded, MediaURL: job.OutputURL}
	default:
		kind := job.ErrorKind
		if kind == "" {
			kind = apperror.KindModelError
		}
		o.log.LogWarnf("pair %d ended %s (%s)", index, job.State, kind)
		return Slot{State: SlotFailed, ErrorKind: kind}
	}
}

func (o *Orchestrator) publish(publish func(Progress), completed, index int, slots []Slot) {
	if publish == nil {
		return
	}
	total := len(slots)
	var text string
	if completed >= total {
		succeeded, failed := CountSlots(slots)
		text = Summary(succeeded, failed)
	} else {
		// 1-based index of the next pair in flight. Exact in sequential mode,
		// approximate under bounded parallelism.
		text = fmt.Sprintf("swapping face into GIF %d of %d", completed+1, total)
	}
	publish(Progress{
		CompletedCount: completed,
		Total:          total,
		StatusText:     text,
		Slots:          slots,
	})
}

// Summary renders the final "K succeeded, M failed" line.
func Summary(succeeded, failed int) string {
	return fmt.Sprintf("%d succeeded, %d failed", succeeded, failed)
}

// CountSlots tallies terminal slot states.
func CountSlots(slots []Slot) (succeeded, failed int) {
	for _, s := range slots {
		switch s.State {
		case SlotSucceeded:
			succeeded++
		case SlotFailed:
			failed++
		}
	}
	return succeeded, failed
}
