// Package reconcile repairs user records left PENDING_CONFIRMATION after the
// identity provider confirmed the account but the local store write failed.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/authgate/pkg/identity"
	"github.com/platinummonkey/authgate/pkg/observability"
	"github.com/platinummonkey/authgate/pkg/users"
)

// Per-record outcomes, also used as metric labels
const (
	ResultConfirmed = "confirmed"
	ResultPending   = "pending"
	ResultMissing   = "missing"
	ResultFailed    = "failed"
)

// StatusChecker reports an account's confirmation state at the identity provider
type StatusChecker interface {
	AccountStatus(ctx context.Context, email string) (identity.AccountStatus, error)
}

// Result summarizes one reconcile run
type Result struct {
	Checked   int
	Confirmed int
	Pending   int
	Missing   int
	Failed    int
	Duration  time.Duration
}

// Reconciler marks pending records DONE once the provider reports them confirmed
type Reconciler struct {
	store       users.Store
	provider    StatusChecker
	log         logrus.FieldLogger
	metrics     *observability.Metrics
	batchSize   int
	concurrency int
}

// Option customizes a Reconciler
type Option func(*Reconciler)

// WithMetrics records per-record and per-run metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// WithBatchSize caps how many pending records one run inspects
func WithBatchSize(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithConcurrency caps in-flight provider lookups
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewReconciler creates a reconciler
func NewReconciler(store users.Store, provider StatusChecker, log logrus.FieldLogger, opts ...Option) *Reconciler {
	if log == nil {
		log = logrus.New()
	}
	r := &Reconciler{
		store:       store,
		provider:    provider,
		log:         log,
		batchSize:   100,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run inspects one batch of pending records. A failure on one record is
// logged and counted without stopping the run. Run returns an error only
// when listing fails, no user pool is configured or ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) (result Result, err error) {
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		r.metrics.RecordReconcileRun(err)
	}()

	pending, err := r.store.ListPending(ctx, r.batchSize)
	if err != nil {
		return result, fmt.Errorf("list pending records: %w", err)
	}
	if len(pending) == 0 {
		r.log.Debug("no pending user records")
		return result, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, record := range pending {
		g.Go(func() error {
			outcome, err := r.reconcileGuarded(gctx, record)

			mu.Lock()
			defer mu.Unlock()
			result.Checked++
			switch outcome {
			case ResultConfirmed:
				result.Confirmed++
			case ResultPending:
				result.Pending++
			case ResultMissing:
				result.Missing++
			default:
				result.Failed++
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	r.log.WithFields(logrus.Fields{
		"checked":   result.Checked,
		"confirmed": result.Confirmed,
		"pending":   result.Pending,
		"missing":   result.Missing,
		"failed":    result.Failed,
	}).Info("reconcile run completed")

	return result, nil
}

// reconcileGuarded turns a panic while handling one record into a failed outcome
func (r *Reconciler) reconcileGuarded(ctx context.Context, record *users.Record) (outcome string, err error) {
	defer func() {
		if p := observability.PanicError(recover()); p != nil {
			r.log.WithError(p).WithField("email", record.Email).Error("reconcile panicked")
			r.metrics.RecordReconcileRecord(ResultFailed)
			outcome, err = ResultFailed, nil
		}
	}()
	return r.reconcileOne(ctx, record)
}

// reconcileOne returns the record's outcome, and an error only when the
// whole run should stop because every lookup would fail the same way.
func (r *Reconciler) reconcileOne(ctx context.Context, record *users.Record) (string, error) {
	log := r.log.WithFields(logrus.Fields{
		"email":      record.Email,
		"subject_id": record.SubjectID,
	})

	status, err := r.provider.AccountStatus(ctx, record.Email)
	switch {
	case errors.Is(err, identity.ErrNoUserPool):
		log.WithError(err).Error("cannot reconcile without a user pool id")
		r.metrics.RecordReconcileRecord(ResultFailed)
		return ResultFailed, err
	case identity.ErrorName(err) == identity.ErrUserNotFound:
		log.Warn("pending user record has no account at the identity provider")
		r.metrics.RecordReconcileRecord(ResultMissing)
		return ResultMissing, nil
	case err != nil:
		log.WithError(err).Warn("account status lookup failed")
		r.metrics.RecordReconcileRecord(ResultFailed)
		return ResultFailed, nil
	}

	if status != identity.AccountConfirmed {
		r.metrics.RecordReconcileRecord(ResultPending)
		return ResultPending, nil
	}

	if err := r.store.MarkConfirmed(ctx, record.Email); err != nil {
		log.WithError(err).Error("failed to mark user record confirmed")
		r.metrics.RecordReconcileRecord(ResultFailed)
		return ResultFailed, nil
	}

	log.Info("user record marked confirmed")
	r.metrics.RecordReconcileRecord(ResultConfirmed)
	return ResultConfirmed, nil
}
