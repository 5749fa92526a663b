package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
	Kind   string    // LLM events only; empty matches all
	UserID string    // training events only; empty matches all
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Kind         string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates token usage for one kind or model.
type LLMUsageStats struct {
	Kind         string
	Model        string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// Training event actions.
const (
	ActionStart  = "start"
	ActionFinish = "finish"
)

// TrainingEventData captures a session lifecycle event.
type TrainingEventData struct {
	SessionID    string
	UserID       string
	Action       string
	Questions    int
	Clarity      int
	Score        int
	Badge        string
	XPGained     int
	Level        int
	Achievements []string
}

// TrainingEventRecord is a stored training event.
type TrainingEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	TrainingEventData
}

// EventRepo provides append and query access to audit events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendTrainingEvent records a session start or finish.
	AppendTrainingEvent(ctx context.Context, data TrainingEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one LLM event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByKind aggregates usage per call kind.
	LLMUsageByKind(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsageStats, error)

	// QueryTrainingEvents returns training events, newest first.
	QueryTrainingEvents(ctx context.Context, opts QueryOpts) ([]TrainingEventRecord, error)
}
