package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/authgate/pkg/identity"
	"github.com/platinummonkey/authgate/pkg/observability"
	"github.com/platinummonkey/authgate/pkg/users"
)

type memStore struct {
	mu         sync.Mutex
	records    map[string]users.Record
	listErr    error
	confirmErr map[string]error
	lastLimit  int
}

func newMemStore(records ...users.Record) *memStore {
	s := &memStore{records: make(map[string]users.Record), confirmErr: make(map[string]error)}
	for _, r := range records {
		s.records[r.Email] = r
	}
	return s
}

func (s *memStore) FindByEmail(ctx context.Context, email string) (*users.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[email]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *memStore) Create(ctx context.Context, record *users.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Email] = *record
	return nil
}

func (s *memStore) MarkConfirmed(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.confirmErr[email]; err != nil {
		return err
	}
	r := s.records[email]
	r.RegistrationStep = users.StepDone
	s.records[email] = r
	return nil
}

func (s *memStore) ListPending(ctx context.Context, limit int) ([]*users.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*users.Record
	for _, r := range s.records {
		if r.RegistrationStep == users.StepPendingConfirmation {
			out = append(out, &r)
		}
	}
	return out, nil
}

func (s *memStore) step(email string) users.RegistrationStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[email].RegistrationStep
}

type statusChecker struct {
	statuses map[string]identity.AccountStatus
	errs     map[string]error
}

func (c *statusChecker) AccountStatus(ctx context.Context, email string) (identity.AccountStatus, error) {
	if err := c.errs[email]; err != nil {
		return identity.AccountUnknown, err
	}
	return c.statuses[email], nil
}

func pending(email string) users.Record {
	return users.Record{Email: email, SubjectID: "sub-" + email, RegistrationStep: users.StepPendingConfirmation}
}

func TestReconciler_Run(t *testing.T) {
	store := newMemStore(
		pending("confirmed@example.com"),
		pending("waiting@example.com"),
		pending("gone@example.com"),
		pending("flaky@example.com"),
		pending("stuck@example.com"),
		users.Record{Email: "done@example.com", RegistrationStep: users.StepDone},
	)
	store.confirmErr["stuck@example.com"] = errors.New("database is read-only")
	checker := &statusChecker{
		statuses: map[string]identity.AccountStatus{
			"confirmed@example.com": identity.AccountConfirmed,
			"waiting@example.com":   identity.AccountUnconfirmed,
			"stuck@example.com":     identity.AccountConfirmed,
		},
		errs: map[string]error{
			"gone@example.com":  &identity.ProviderError{Name: identity.ErrUserNotFound},
			"flaky@example.com": &identity.ProviderError{Name: identity.ErrTransport},
		},
	}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	logger, hook := test.NewNullLogger()

	r := NewReconciler(store, checker, logger, WithMetrics(metrics), WithBatchSize(50), WithConcurrency(2))
	result, err := r.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, result.Checked)
	assert.Equal(t, 1, result.Confirmed)
	assert.Equal(t, 1, result.Pending)
	assert.Equal(t, 1, result.Missing)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 50, store.lastLimit)

	assert.Equal(t, users.StepDone, store.step("confirmed@example.com"))
	assert.Equal(t, users.StepPendingConfirmation, store.step("waiting@example.com"))
	assert.Equal(t, users.StepPendingConfirmation, store.step("stuck@example.com"))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReconcileRecordsTotal.WithLabelValues(ResultConfirmed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ReconcileRecordsTotal.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReconcileRunsTotal.WithLabelValues("ok")))

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "reconcile run completed", last.Message)
	assert.Equal(t, 1, last.Data["confirmed"])

	var sawStuck bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Data["email"] == "stuck@example.com" {
			sawStuck = true
		}
	}
	assert.True(t, sawStuck)
}

func TestReconciler_NothingPending(t *testing.T) {
	store := newMemStore(users.Record{Email: "done@example.com", RegistrationStep: users.StepDone})
	logger, _ := test.NewNullLogger()

	result, err := NewReconciler(store, &statusChecker{}, logger).Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.Checked)
	assert.Equal(t, 100, store.lastLimit)
}

func TestReconciler_ListFailure(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("connection refused")
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	_, err := NewReconciler(store, &statusChecker{}, nil, WithMetrics(metrics)).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list pending records")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReconcileRunsTotal.WithLabelValues("error")))
}

func TestReconciler_NoUserPoolStopsRun(t *testing.T) {
	store := newMemStore(pending("a@example.com"), pending("b@example.com"))
	checker := &statusChecker{errs: map[string]error{
		"a@example.com": identity.ErrNoUserPool,
		"b@example.com": identity.ErrNoUserPool,
	}}
	logger, _ := test.NewNullLogger()

	_, err := NewReconciler(store, checker, logger, WithConcurrency(1)).Run(context.Background())

	assert.ErrorIs(t, err, identity.ErrNoUserPool)
}

func TestReconciler_ContextCancelled(t *testing.T) {
	store := newMemStore(pending("a@example.com"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	logger, _ := test.NewNullLogger()

	_, err := NewReconciler(store, &statusChecker{}, logger).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

type panickingChecker struct{}

func (panickingChecker) AccountStatus(ctx context.Context, email string) (identity.AccountStatus, error) {
	panic("nil session")
}

func TestReconciler_PanicCountsAsFailed(t *testing.T) {
	store := newMemStore(pending("a@example.com"))
	logger, hook := test.NewNullLogger()

	result, err := NewReconciler(store, panickingChecker{}, logger).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, users.StepPendingConfirmation, store.step("a@example.com"))

	var panicked bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "reconcile panicked" {
			panicked = true
			assert.Equal(t, logrus.ErrorLevel, entry.Level)
		}
	}
	assert.True(t, panicked)
}
