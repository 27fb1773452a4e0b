package authflow

import (
	"context"
	"sync"

	"github.com/platinummonkey/authgate/pkg/identity"
	"github.com/platinummonkey/authgate/pkg/users"
)

// fakeProvider is a scriptable identity.Provider that counts calls
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int

	signup       *identity.SignupOutcome
	auth         *identity.AuthOutcome
	secret       *identity.MFASecret
	verification *identity.Verification
	tokens       *identity.Tokens

	errs map[string]error

	associateSession string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		calls: make(map[string]int),
		errs:  make(map[string]error),
	}
}

func (f *fakeProvider) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.errs[op]
}

func (f *fakeProvider) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeProvider) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeProvider) CreateAccount(ctx context.Context, email, password string) (*identity.SignupOutcome, error) {
	if err := f.record("CreateAccount"); err != nil {
		return nil, err
	}
	return f.signup, nil
}

func (f *fakeProvider) ConfirmAccount(ctx context.Context, email, code string) error {
	return f.record("ConfirmAccount")
}

func (f *fakeProvider) Authenticate(ctx context.Context, email, password string) (*identity.AuthOutcome, error) {
	if err := f.record("Authenticate"); err != nil {
		return nil, err
	}
	return f.auth, nil
}

func (f *fakeProvider) AssociateMFA(ctx context.Context, session string) (*identity.MFASecret, error) {
	f.mu.Lock()
	f.associateSession = session
	f.mu.Unlock()
	if err := f.record("AssociateMFA"); err != nil {
		return nil, err
	}
	return f.secret, nil
}

func (f *fakeProvider) VerifyMFA(ctx context.Context, session, code string) (*identity.Verification, error) {
	if err := f.record("VerifyMFA"); err != nil {
		return nil, err
	}
	return f.verification, nil
}

func (f *fakeProvider) RespondToChallenge(ctx context.Context, email, session, code string) (*identity.Tokens, error) {
	if err := f.record("RespondToChallenge"); err != nil {
		return nil, err
	}
	return f.tokens, nil
}

func (f *fakeProvider) ResendCode(ctx context.Context, email string) error {
	return f.record("ResendCode")
}

func (f *fakeProvider) ResetPassword(ctx context.Context, email string) error {
	return f.record("ResetPassword")
}

func (f *fakeProvider) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	return f.record("ConfirmPasswordReset")
}

func (f *fakeProvider) RefreshToken(ctx context.Context, refreshToken string) (*identity.Tokens, error) {
	if err := f.record("RefreshToken"); err != nil {
		return nil, err
	}
	return f.tokens, nil
}

func (f *fakeProvider) AccountStatus(ctx context.Context, email string) (identity.AccountStatus, error) {
	if err := f.record("AccountStatus"); err != nil {
		return identity.AccountUnknown, err
	}
	return identity.AccountConfirmed, nil
}

func (f *fakeProvider) Settings() identity.PublicSettings {
	return identity.PublicSettings{Region: "us-east-1", ClientID: "client", Domain: "auth.example.com"}
}

func (f *fakeProvider) Close() error { return nil }

// fakeStore is an in-memory users.Store counting writes
type fakeStore struct {
	mu      sync.Mutex
	records map[string]users.Record

	creates  int
	confirms int

	findErr    error
	createErr  error
	confirmErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]users.Record)}
}

func (s *fakeStore) FindByEmail(ctx context.Context, email string) (*users.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	r, ok := s.records[email]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *fakeStore) Create(ctx context.Context, record *users.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.records[record.Email]; ok {
		return users.ErrDuplicate
	}
	s.records[record.Email] = *record
	return nil
}

func (s *fakeStore) MarkConfirmed(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirms++
	if s.confirmErr != nil {
		return s.confirmErr
	}
	r, ok := s.records[email]
	if !ok {
		return users.ErrNotFound
	}
	r.RegistrationStep = users.StepDone
	s.records[email] = r
	return nil
}

func (s *fakeStore) ListPending(ctx context.Context, limit int) ([]*users.Record, error) {
	return nil, nil
}

func (s *fakeStore) get(email string) (users.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[email]
	return r, ok
}
