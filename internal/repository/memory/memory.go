// Package memory provides in-process implementations of the repository
// interfaces. They enforce the same uniqueness, foreign-key and cascade rules
// as the Postgres schema and back the service and router tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/prperemyshlev/starterkit-auth/internal/repository"
)

// Store is the shared state behind the in-memory repositories.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	users    map[string]*domain.User
	tokens   map[string]*domain.RefreshToken
	payments map[string]*domain.Payment
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*domain.User),
		tokens:   make(map[string]*domain.RefreshToken),
		payments: make(map[string]*domain.Payment),
	}
}

// Repositories returns repository handles over the store.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:    &userRepository{s: s},
		Token:   &tokenRepository{s: s},
		Payment: &paymentRepository{s: s},
		Tx:      &transactor{s: s},
	}
}

// UserCount returns the number of stored users.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// SessionCount returns the number of stored sessions of a user.
func (s *Store) SessionCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

// ExpireSessions moves the expiry of every session of a user to at.
func (s *Store) ExpireSessions(userID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.UserID == userID {
			t.ExpiresAt = at
		}
	}
}

type snapshot struct {
	users    map[string]*domain.User
	tokens   map[string]*domain.RefreshToken
	payments map[string]*domain.Payment
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		users:    make(map[string]*domain.User, len(s.users)),
		tokens:   make(map[string]*domain.RefreshToken, len(s.tokens)),
		payments: make(map[string]*domain.Payment, len(s.payments)),
	}
	for k, v := range s.users {
		snap.users[k] = copyUser(v)
	}
	for k, v := range s.tokens {
		t := *v
		snap.tokens[k] = &t
	}
	for k, v := range s.payments {
		p := *v
		snap.payments[k] = &p
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.tokens = snap.tokens
	s.payments = snap.payments
}

type transactor struct {
	s *Store
}

// WithinTransaction runs fn and restores the pre-transaction state if it fails.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) (err error) {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	snap := t.s.snapshot()
	repos := &repository.Repositories{
		User:    &userRepository{s: t.s},
		Token:   &tokenRepository{s: t.s},
		Payment: &paymentRepository{s: t.s},
	}
	repos.Tx = nested{repos: repos}

	defer func() {
		if p := recover(); p != nil {
			t.s.restore(snap)
			panic(p)
		}
		if err != nil {
			t.s.restore(snap)
		}
	}()

	return fn(ctx, repos)
}

type nested struct {
	repos *repository.Repositories
}

func (n nested) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	return fn(ctx, n.repos)
}

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.PremiumStatus == "" {
		user.PremiumStatus = domain.PremiumFree
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	if err := r.s.checkUnique(user); err != nil {
		return err
	}
	r.s.users[user.ID] = copyUser(user)
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id }, "id "+id)
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email }, "email "+email)
}

func (r *userRepository) GetByGoogleIDOrEmail(_ context.Context, googleID, email string) (*domain.User, error) {
	if u, err := r.find(func(u *domain.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID }, ""); err == nil {
		return u, nil
	}
	return r.find(func(u *domain.User) bool { return u.Email == email }, "google id or email "+email)
}

func (r *userRepository) GetByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return u.VerificationToken != nil && *u.VerificationToken == token
	}, "verification token")
}

func (r *userRepository) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return u.ResetToken != nil && *u.ResetToken == token
	}, "reset token")
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return fmt.Errorf("user with id %s not found: %w", user.ID, repository.ErrNotFound)
	}
	if err := r.s.checkUnique(user); err != nil {
		return err
	}

	user.UpdatedAt = time.Now().UTC()
	updated := copyUser(user)
	updated.CreatedAt = existing.CreatedAt
	updated.LastLoginAt = existing.LastLoginAt
	r.s.users[user.ID] = updated
	return nil
}

func (r *userRepository) UpdateLastLogin(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return fmt.Errorf("user with id %s not found: %w", userID, repository.ErrNotFound)
	}
	now := time.Now().UTC()
	u.LastLoginAt = &now
	return nil
}

func (r *userRepository) Delete(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return fmt.Errorf("user with id %s not found: %w", userID, repository.ErrNotFound)
	}
	delete(r.s.users, userID)

	// ON DELETE CASCADE
	for k, t := range r.s.tokens {
		if t.UserID == userID {
			delete(r.s.tokens, k)
		}
	}
	for k, p := range r.s.payments {
		if p.UserID == userID {
			delete(r.s.payments, k)
		}
	}
	return nil
}

func (r *userRepository) find(match func(*domain.User) bool, what string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user with %s not found: %w", what, repository.ErrNotFound)
}

// checkUnique must be called with mu held.
func (s *Store) checkUnique(user *domain.User) error {
	for id, other := range s.users {
		if id == user.ID {
			continue
		}
		if other.Email == user.Email {
			return fmt.Errorf("user with email %s already exists: %w", user.Email, repository.ErrDuplicateEmail)
		}
		if user.GoogleID != nil && other.GoogleID != nil && *other.GoogleID == *user.GoogleID {
			return fmt.Errorf("google account already linked to another user: %w", repository.ErrDuplicateExternalID)
		}
	}
	return nil
}

type tokenRepository struct {
	s *Store
}

func (r *tokenRepository) Create(_ context.Context, token *domain.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[token.UserID]; !ok {
		return fmt.Errorf("failed to create token: user %s does not exist", token.UserID)
	}
	for _, t := range r.s.tokens {
		if t.TokenHash == token.TokenHash {
			return fmt.Errorf("token with hash already exists: %w", repository.ErrDuplicateToken)
		}
	}

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	t := *token
	r.s.tokens[token.ID] = &t
	return nil
}

func (r *tokenRepository) GetByTokenHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("token with hash not found: %w", repository.ErrNotFound)
}

func (r *tokenRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, t := range r.s.tokens {
		if t.TokenHash == tokenHash {
			delete(r.s.tokens, k)
		}
	}
	return nil
}

func (r *tokenRepository) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, t := range r.s.tokens {
		if t.UserID == userID {
			delete(r.s.tokens, k)
		}
	}
	return nil
}

type paymentRepository struct {
	s *Store
}

func (r *paymentRepository) Create(_ context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[payment.UserID]; !ok {
		return fmt.Errorf("failed to create payment: user %s does not exist", payment.UserID)
	}
	for _, p := range r.s.payments {
		if p.Provider == payment.Provider && p.TransactionID == payment.TransactionID {
			return fmt.Errorf("payment %s/%s already recorded: %w", payment.Provider, payment.TransactionID, repository.ErrDuplicatePayment)
		}
	}

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	p := *payment
	r.s.payments[payment.ID] = &p
	return nil
}

func (r *paymentRepository) ListByUserID(_ context.Context, userID string) ([]*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	payments := make([]*domain.Payment, 0)
	for _, p := range r.s.payments {
		if p.UserID == userID {
			cp := *p
			payments = append(payments, &cp)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	return payments, nil
}

func (r *paymentRepository) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, p := range r.s.payments {
		if p.UserID == userID {
			delete(r.s.payments, k)
		}
	}
	return nil
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	cp.PasswordHash = copyPtr(u.PasswordHash)
	cp.GoogleID = copyPtr(u.GoogleID)
	cp.PictureURL = copyPtr(u.PictureURL)
	cp.VerificationToken = copyPtr(u.VerificationToken)
	cp.ResetToken = copyPtr(u.ResetToken)
	cp.ResetTokenExpiresAt = copyPtr(u.ResetTokenExpiresAt)
	cp.PremiumExpiresAt = copyPtr(u.PremiumExpiresAt)
	cp.LastLoginAt = copyPtr(u.LastLoginAt)
	return &cp
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
