package job

import (
	"context"
	"fmt"

	rds "gifswap/internal/platform/redis"
)

type JobService struct{ redis *rds.Service }

func NewJobService(redis *rds.Service) *JobService { return &JobService{redis: redis} }

func (s *JobService) GetJobStatus(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := s.redis.CacheGet(ctx, key(jobID), &job); err != nil {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	return &job, nil
}

func (s *JobService) store(ctx context.Context, jobID string, jobType Type, status Status, result *BatchData) error {
	var job Job
	_ = s.redis.CacheGet(ctx, key(jobID), &job)
	job.JobID = jobID
	job.Type = jobType
	job.Status = status
	if result != nil {
		job.Results = JobResult{BatchResult: result}
	}
	if err := s.redis.CacheSet(ctx, key(jobID), job, ttl(status)); err != nil {
		return err
	}
	// Notify SSE/websocket listeners that the snapshot changed.
	_ = s.redis.Client().Publish(ctx, key(jobID), "updated").Err()
	return nil
}

func (s *JobService) InitPending(ctx context.Context, jobID string, total int) error {
	slots := make([]SlotData, total)
	for i := range slots {
		slots[i] = SlotData{Index: i, State: "pending"}
	}
	return s.store(ctx, jobID, TypeBatch, StatusPending, &BatchData{Total: total, Slots: slots})
}

func (s *JobService) SetProcessing(ctx context.Context, jobID string) error {
	return s.store(ctx, jobID, TypeBatch, StatusProcessing, nil)
}

// UpdateProgress overwrites the batch snapshot while the run is in flight.
func (s *JobService) UpdateProgress(ctx context.Context, jobID string, data BatchData) error {
	return s.store(ctx, jobID, TypeBatch, StatusProcessing, &data)
}

func (s *JobService) Complete(ctx context.Context, jobID string, status Status, data BatchData) error {
	return s.store(ctx, jobID, TypeBatch, status, &data)
}

func key(id string) string { return "job:" + id }

func ttl(s Status) int {
	if s == StatusCompleted || s == StatusFailed {
		return 3600
	}
	return 600
}
