package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

// BalanceRecalculator recomputes a client balance from its active sales.
type BalanceRecalculator interface {
	RecalculateBalance(ctx context.Context, scope tenant.Scope, clientID int64) (int64, error)
}

// BalanceAuditJob re-folds every client balance and repairs drift.
type BalanceAuditJob struct {
	Pool    *pgxpool.Pool
	Recalc  BalanceRecalculator
	Redis   *redis.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewBalanceAuditJob initialises the balance audit handler.
func NewBalanceAuditJob(pool *pgxpool.Pool, recalc BalanceRecalculator, rdb *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *BalanceAuditJob {
	return &BalanceAuditJob{
		Pool:    pool,
		Recalc:  recalc,
		Redis:   rdb,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type auditTarget struct {
	BusinessID int64
	ClientID   int64
	Balance    int64
}

type auditSummary struct {
	BusinessID  int64     `json:"business_id"`
	Clients     int       `json:"clients"`
	Drifted     int       `json:"drifted"`
	CompletedAt time.Time `json:"completed_at"`
}

// Handle executes the balance audit pass.
func (j *BalanceAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil || j.Recalc == nil {
		return errors.New("balance audit: handler not configured")
	}
	var payload BalanceAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.now()
	tracker := j.Metrics.Track(TaskBalanceAudit)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting balance audit")

	targets, err := j.listTargets(ctx)
	if err != nil {
		resultErr = err
		logger.Error("balance audit listing failed", slog.Any("error", err))
		return resultErr
	}

	var mu sync.Mutex
	summaries := make(map[int64]*auditSummary)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, target := range targets {
		g.Go(func() error {
			scope := tenant.Scope{BusinessID: target.BusinessID}
			balance, err := j.Recalc.RecalculateBalance(gctx, scope, target.ClientID)
			if err != nil {
				logger.Warn("balance audit recompute failed",
					slog.Int64("business_id", target.BusinessID),
					slog.Int64("client_id", target.ClientID),
					slog.Any("error", err),
				)
				return nil
			}
			drifted := balance != target.Balance
			if drifted {
				logger.Warn("balance drift repaired",
					slog.Int64("business_id", target.BusinessID),
					slog.Int64("client_id", target.ClientID),
					slog.String("stored", shared.FormatMinorUnits(target.Balance)),
					slog.String("recomputed", shared.FormatMinorUnits(balance)),
				)
			}
			mu.Lock()
			summary, ok := summaries[target.BusinessID]
			if !ok {
				summary = &auditSummary{BusinessID: target.BusinessID}
				summaries[target.BusinessID] = summary
			}
			summary.Clients++
			if drifted {
				summary.Drifted++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		return resultErr
	}

	completed := j.now()
	drifted := 0
	for _, summary := range summaries {
		summary.CompletedAt = completed
		drifted += summary.Drifted
		j.Metrics.AddDrift(summary.BusinessID, summary.Drifted)
		j.storeSummary(ctx, summary)
	}

	logger.Info("completed balance audit",
		slog.Int("clients", len(targets)),
		slog.Int("businesses", len(summaries)),
		slog.Int("drifted", drifted),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *BalanceAuditJob) listTargets(ctx context.Context) ([]auditTarget, error) {
	rows, err := j.Pool.Query(ctx, `
		SELECT business_id, id, balance
		FROM clients
		WHERE deleted_at IS NULL
		ORDER BY business_id, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []auditTarget
	for rows.Next() {
		var t auditTarget
		if err := rows.Scan(&t.BusinessID, &t.ClientID, &t.Balance); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func (j *BalanceAuditJob) storeSummary(ctx context.Context, summary *auditSummary) {
	if j.Redis == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := j.Redis.Set(ctx, shared.BalanceAuditKey(summary.BusinessID), raw, 48*time.Hour).Err(); err != nil {
		j.logger().Warn("balance audit summary store failed",
			slog.Int64("business_id", summary.BusinessID),
			slog.Any("error", err),
		)
	}
}

func (j *BalanceAuditJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *BalanceAuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
