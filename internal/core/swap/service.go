// Package swap submits single face-swap pairs to the provider and polls them
// to a terminal state.
package swap

import (
	"context"
	"net/url"
	"strings"
	"time"

	"gifswap/internal/apperror"
	"gifswap/internal/core/provider"
	"gifswap/internal/logger"
)

// Provider is the remote prediction API the service drives.
type Provider interface {
	Submit(ctx context.Context, sourceImage, targetGifURL string) (*provider.SwapJob, error)
	Status(ctx context.Context, id string) (*provider.SwapJob, error)
}

// PollOptions bound the status loop. The interval is fixed per poll; the
// timeout and attempt cap turn a stuck prediction into timeout_error instead
// of waiting forever.
type PollOptions struct {
	Interval    time.Duration
	Timeout     time.Duration
	MaxAttempts int
}

func (o PollOptions) withDefaults() PollOptions {
	if o.Interval <= 0 {
		o.Interval = 3 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Minute
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 100
	}
	return o
}

type Service struct {
	provider Provider
	opts     PollOptions
	log      *logger.Logger
}

func NewService(p Provider, opts PollOptions) *Service {
	return &Service{provider: p, opts: opts.withDefaults(), log: logger.New("SwapService")}
}

// Submit validates the pair and creates a prediction. Validation failures
// never reach the provider. Submission failures are not retried; they surface
// to the caller immediately.
func (s *Service) Submit(ctx context.Context, sourceImage, targetGifURL string) (*provider.SwapJob, error) {
	if err := ValidateSourceImage(sourceImage); err != nil {
		return nil, err
	}
	if err := ValidateTargetURL(targetGifURL); err != nil {
		return nil, err
	}
	return s.provider.Submit(ctx, sourceImage, targetGifURL)
}

// Status re-queries one prediction. Terminal jobs short-circuit locally so
// repeated status checks of a finished job never hit the network.
func (s *Service) Status(ctx context.Context, job *provider.SwapJob) (*provider.SwapJob, error) {
	if job.State.Terminal() {
		return job, nil
	}
	return s.provider.Status(ctx, job.ID)
}

// Poll drives a created/running job to a terminal state at a fixed interval.
// A single failed status query fails the whole poll; the query itself is not
// retried. Context cancellation abandons the poll without canceling the
// remote prediction.
func (s *Service) Poll(ctx context.Context, job *provider.SwapJob) (*provider.SwapJob, error) {
	if job.State.Terminal() {
		return job, nil
	}

	deadline := time.Now().Add(s.opts.Timeout)
	for attempt := 0; attempt < s.opts.MaxAttempts; attempt++ {
		cur, err := s.provider.Status(ctx, job.ID)
		if err != nil {
			return nil, apperror.Classify(err)
		}
		if cur.State.Terminal() {
			return cur, nil
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, apperror.Wrap(apperror.KindTimeoutError, "poll abandoned", ctx.Err())
		case <-time.After(s.opts.Interval):
		}
	}
	return nil, apperror.Newf(apperror.KindTimeoutError, "prediction %s did not finish within %s", job.ID, s.opts.Timeout)
}

// Run is the submit-then-poll path used per batch pair.
func (s *Service) Run(ctx context.Context, sourceImage, targetGifURL string) (*provider.SwapJob, error) {
	job, err := s.Submit(ctx, sourceImage, targetGifURL)
	if err != nil {
		return nil, err
	}
	return s.Poll(ctx, job)
}

// ValidateSourceImage requires a well-formed base64 image data URL.
func ValidateSourceImage(v string) error {
	if v == "" {
		return apperror.New(apperror.KindBadRequest, "source image is required")
	}
	if !strings.HasPrefix(v, "data:image/") || !strings.Contains(v, ";base64,") {
		return apperror.New(apperror.KindInvalidFormat, "source image must be a base64 image data URL")
	}
	return nil
}

// ValidateTargetURL requires an absolute http(s) URL.
func ValidateTargetURL(v string) error {
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.New(apperror.KindBadRequest, "target GIF URL must be an absolute http(s) URL")
	}
	return nil
}
