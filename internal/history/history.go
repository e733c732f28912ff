package history

import (
	"context"
	"time"
)

// Entry is one recorded upload attempt.
type Entry struct {
	ID         int64         `json:"id"`
	CycleID    string        `json:"cycleId"`
	MACAddress string        `json:"macAddress"`
	Readings   int           `json:"readings"`
	StatusCode int           `json:"statusCode"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"durationNs"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Succeeded reports whether the collector accepted the upload.
func (e Entry) Succeeded() bool {
	return e.Error == "" && e.StatusCode == 200
}

// Journal records and lists upload attempts.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
