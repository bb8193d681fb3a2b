package job

// Job represents internal job storage (not exposed verbatim in the API).
type Job struct {
	JobID   string    `json:"job_id"`
	Type    Type      `json:"type"`
	Status  Status    `json:"status"`
	Results JobResult `json:"results,omitempty"`
}

// Type for internal job classification
type Type string

const (
	TypeBatch Type = "batch"
)

// Status for internal job tracking
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type JobResult struct {
	BatchResult *BatchData `json:"batch_result,omitempty"`
}

// BatchData is the progressive snapshot of one batch run: the ordered slots
// plus the progress counters the UI renders from.
type BatchData struct {
	CompletedCount int        `json:"completed_count"`
	Total          int        `json:"total"`
	StatusText     string     `json:"status_text,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	Slots          []SlotData `json:"slots"`
}

// SlotData is one result slot, index-aligned with the request pairs.
type SlotData struct {
	Index     int    `json:"index"`
	State     string `json:"state"`
	MediaURL  string `json:"media_url,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}
