package batch

import (
	"context"
	"encoding/json"

	"gifswap/internal/core/job"
	"gifswap/internal/logger"
	"gifswap/internal/platform/api"
	tasks "gifswap/internal/platform/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskTypeBatch = "batch:swap"

type TaskPayload struct {
	JobID   string                 `json:"job_id"`
	Request api.BatchCreateRequest `json:"request"`
}

type Service struct {
	jobs       *job.JobService
	tasks      *tasks.Client
	orch       *Orchestrator
	maxRetries int
	log        *logger.Logger
}

func NewService(jobs *job.JobService, t *tasks.Client, orch *Orchestrator, maxRetries int) *Service {
	return &Service{jobs: jobs, tasks: t, orch: orch, maxRetries: maxRetries, log: logger.New("BatchService")}
}

// Pairs flattens a request into the uniform pair list the orchestrator runs.
// In shared mode every GIF gets the one face; pairs mode is passed through.
func Pairs(req api.BatchCreateRequest) []Pair {
	if len(req.Pairs) > 0 {
		out := make([]Pair, len(req.Pairs))
		for i, p := range req.Pairs {
			out[i] = Pair{TargetGifURL: p.TargetGifUrl, SourceImage: p.SourceImageData}
		}
		return out
	}
	out := make([]Pair, len(req.TargetGifUrls))
	for i, u := range req.TargetGifUrls {
		out[i] = Pair{TargetGifURL: u, SourceImage: req.SourceImageData}
	}
	return out
}

// Enqueue registers a pending job and schedules the batch on the worker.
// An empty batch is completed in place; no task, no remote calls.
func (s *Service) Enqueue(ctx context.Context, req api.BatchCreateRequest) (string, error) {
	id := uuid.New().String()
	pairs := Pairs(req)

	if err := s.jobs.InitPending(ctx, id, len(pairs)); err != nil {
		return "", err
	}
	if len(pairs) == 0 {
		if err := s.jobs.Complete(ctx, id, job.StatusCompleted, job.BatchData{
			Total:   0,
			Summary: Summary(0, 0),
			Slots:   []job.SlotData{},
		}); err != nil {
			return "", err
		}
		return id, nil
	}

	payload, _ := json.Marshal(TaskPayload{JobID: id, Request: req})
	task := asynq.NewTask(TaskTypeBatch, payload)
	if err := s.tasks.Enqueue(task, "default", s.maxRetries); err != nil {
		return "", err
	}
	s.log.LogInfof("enqueued batch job %s with %d pairs", id, len(pairs))
	return id, nil
}

// HandleTask is the asynq worker entry: runs the orchestrator and mirrors its
// progress into the job store after every terminal slot.
func (s *Service) HandleTask(ctx context.Context, task *asynq.Task) error {
	var p TaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return err
	}
	pairs := Pairs(p.Request)
	s.log.LogInfof("processing batch job %s (%d pairs)", p.JobID, len(pairs))

	if err := s.jobs.SetProcessing(ctx, p.JobID); err != nil {
		return err
	}

	slots := s.orch.Run(ctx, pairs, func(pr Progress) {
		if err := s.jobs.UpdateProgress(ctx, p.JobID, toBatchData(pr.Slots, pr.CompletedCount, pr.StatusText, "")); err != nil {
			s.log.LogWarnf("progress update failed for %s: %v", p.JobID, err)
		}
	})

	succeeded, failed := CountSlots(slots)
	summary := Summary(succeeded, failed)
	status := job.StatusCompleted
	if succeeded == 0 && len(slots) > 0 {
		// Zero successes is a total failure, reported distinctly so the UI can
		// offer a retry instead of an empty result grid.
		status = job.StatusFailed
	}
	s.log.LogInfof("batch job %s done: %s", p.JobID, summary)
	return s.jobs.Complete(ctx, p.JobID, status, toBatchData(slots, len(slots), summary, summary))
}

func toBatchData(slots []Slot, completed int, statusText, summary string) job.BatchData {
	data := job.BatchData{
		CompletedCount: completed,
		Total:          len(slots),
		StatusText:     statusText,
		Summary:        summary,
		Slots:          make([]job.SlotData, len(slots)),
	}
	for i, s := range slots {
		data.Slots[i] = job.SlotData{
			Index:     i,
			State:     string(s.State),
			MediaURL:  s.MediaURL,
			ErrorType: string(s.ErrorKind),
		}
	}
	return data
}
