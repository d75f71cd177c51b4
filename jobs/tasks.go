package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the main processing queue.
	QueueDefault = "default"

	// TaskBalanceAudit re-runs the balance fold for every client and repairs drift.
	TaskBalanceAudit = "ledger:balance_audit"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"

	// CronNightly runs a task every night at 02:00 UTC.
	CronNightly = "0 2 * * *"
)

// BalanceAuditPayload parameterises a balance audit pass.
type BalanceAuditPayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

// NewBalanceAuditTask builds the balance audit task.
func NewBalanceAuditTask(requestedAt time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(BalanceAuditPayload{RequestedAt: requestedAt})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBalanceAudit, payload), nil
}

// IdempotencyCleanupPayload parameterises the retention sweep.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask builds the idempotency cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, payload), nil
}
