package swap

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gifswap/internal/apperror"
	"gifswap/internal/core/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const faceData = "data:image/png;base64,aGVsbG8="

// fakeProvider scripts the status responses returned on successive polls.
type fakeProvider struct {
	submitJob   *provider.SwapJob
	submitErr   error
	statuses    []*provider.SwapJob
	statusErr   error
	submitCalls int
	statusCalls int
}

func (f *fakeProvider) Submit(_ context.Context, _, _ string) (*provider.SwapJob, error) {
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.submitJob, nil
}

func (f *fakeProvider) Status(_ context.Context, _ string) (*provider.SwapJob, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	idx := f.statusCalls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return f.statuses[idx], nil
}

func fastOpts() PollOptions {
	return PollOptions{Interval: time.Millisecond, Timeout: time.Second, MaxAttempts: 50}
}

func TestSubmitValidatesBeforeProviderCall(t *testing.T) {
	fp := &fakeProvider{}
	s := NewService(fp, fastOpts())

	_, err := s.Submit(context.Background(), "not-a-data-url", "https://gifs.example/a.gif")
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidFormat, apperror.KindOf(err))

	_, err = s.Submit(context.Background(), faceData, "ftp://bad.example/a.gif")
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))

	_, err = s.Submit(context.Background(), faceData, "%%%")
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))

	// None of the invalid inputs may reach the provider.
	assert.Zero(t, fp.submitCalls)
}

func TestSubmitMissingFace(t *testing.T) {
	s := NewService(&fakeProvider{}, fastOpts())
	_, err := s.Submit(context.Background(), "", "https://gifs.example/a.gif")
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestPollResolvesAfterProcessing(t *testing.T) {
	fp := &fakeProvider{
		statuses: []*provider.SwapJob{
			{ID: "p", State: provider.StateRunning},
			{ID: "p", State: provider.StateRunning},
			{ID: "p", State: provider.StateSucceeded, OutputURL: "https://cdn.example/out.gif"},
		},
	}
	s := NewService(fp, fastOpts())

	job, err := s.Poll(context.Background(), &provider.SwapJob{ID: "p", State: provider.StateCreated})
	require.NoError(t, err)
	assert.Equal(t, provider.StateSucceeded, job.State)
	assert.Equal(t, "https://cdn.example/out.gif", job.OutputURL)
	assert.Equal(t, 3, fp.statusCalls)
}

func TestPollTerminalJobShortCircuits(t *testing.T) {
	fp := &fakeProvider{}
	s := NewService(fp, fastOpts())

	done := &provider.SwapJob{ID: "p", State: provider.StateSucceeded, OutputURL: "u"}
	job, err := s.Poll(context.Background(), done)
	require.NoError(t, err)
	assert.Same(t, done, job)
	assert.Zero(t, fp.statusCalls, "terminal jobs must not hit the network")

	// Re-querying terminal status stays stable.
	again, err := s.Status(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, provider.StateSucceeded, again.State)
	assert.Zero(t, fp.statusCalls)
}

func TestPollSingleQueryFailureFailsJob(t *testing.T) {
	fp := &fakeProvider{statusErr: errors.New("connection refused")}
	s := NewService(fp, fastOpts())

	_, err := s.Poll(context.Background(), &provider.SwapJob{ID: "p", State: provider.StateRunning})
	require.Error(t, err)
	assert.Equal(t, apperror.KindNetworkError, apperror.KindOf(err))
	assert.Equal(t, 1, fp.statusCalls, "a failed status check is not retried")
}

func TestPollTimesOut(t *testing.T) {
	fp := &fakeProvider{
		statuses: []*provider.SwapJob{{ID: "p", State: provider.StateRunning}},
	}
	s := NewService(fp, PollOptions{Interval: time.Millisecond, Timeout: 5 * time.Millisecond, MaxAttempts: 1000})

	_, err := s.Poll(context.Background(), &provider.SwapJob{ID: "p", State: provider.StateRunning})
	require.Error(t, err)
	assert.Equal(t, apperror.KindTimeoutError, apperror.KindOf(err))
}

func TestPollAttemptCap(t *testing.T) {
	fp := &fakeProvider{
		statuses: []*provider.SwapJob{{ID: "p", State: provider.StateRunning}},
	}
	s := NewService(fp, PollOptions{Interval: time.Millisecond, Timeout: time.Minute, MaxAttempts: 3})

	_, err := s.Poll(context.Background(), &provider.SwapJob{ID: "p", State: provider.StateRunning})
	require.Error(t, err)
	assert.Equal(t, apperror.KindTimeoutError, apperror.KindOf(err))
	assert.Equal(t, 3, fp.statusCalls)
}

func TestPollAbandonedByContext(t *testing.T) {
	fp := &fakeProvider{
		statuses: []*provider.SwapJob{{ID: "p", State: provider.StateRunning}},
	}
	s := NewService(fp, PollOptions{Interval: time.Hour, Timeout: time.Hour, MaxAttempts: 10})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := s.Poll(ctx, &provider.SwapJob{ID: "p", State: provider.StateRunning})
	require.Error(t, err)
	assert.Equal(t, apperror.KindTimeoutError, apperror.KindOf(err))
}

// Cancellation that lands while a status query is in flight reports the same
// timeout kind as cancellation caught between polls.
func TestPollCanceledMidQueryReportsTimeout(t *testing.T) {
	fp := &fakeProvider{statusErr: fmt.Errorf("Get \"/v1/predictions/p\": %w", context.Canceled)}
	s := NewService(fp, fastOpts())

	_, err := s.Poll(context.Background(), &provider.SwapJob{ID: "p", State: provider.StateRunning})
	require.Error(t, err)
	assert.Equal(t, apperror.KindTimeoutError, apperror.KindOf(err))
}

func TestValidateTargetURL(t *testing.T) {
	assert.NoError(t, ValidateTargetURL("https://gifs.example/a.gif"))
	assert.NoError(t, ValidateTargetURL("http://gifs.example/a.gif"))
	assert.Error(t, ValidateTargetURL(""))
	assert.Error(t, ValidateTargetURL("/relative/path.gif"))
	assert.Error(t, ValidateTargetURL("file:///etc/passwd"))
}
