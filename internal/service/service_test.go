package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/prperemyshlev/starterkit-auth/internal/repository/memory"
	"github.com/prperemyshlev/starterkit-auth/internal/utils"
	"github.com/prperemyshlev/starterkit-auth/pkg/database"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessSecret  = "access-secret-for-tests-0123456789abcdef"
	testRefreshSecret = "refresh-secret-for-tests-0123456789abcdef"
	testPassword      = "Password123"
)

type sentMail struct {
	kind  string
	to    string
	token string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) SendVerification(_ context.Context, to, _, token string) error {
	return n.record("verification", to, token)
}

func (n *fakeNotifier) SendPasswordReset(_ context.Context, to, _, token string) error {
	return n.record("password_reset", to, token)
}

func (n *fakeNotifier) record(kind, to, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: kind, to: to, token: token})
	return n.err
}

// last returns the token of the most recent mail of kind sent to to
func (n *fakeNotifier) last(kind, to string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].kind == kind && n.sent[i].to == to {
			return n.sent[i].token, true
		}
	}
	return "", false
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeVerifier struct {
	identities map[string]domain.GoogleIdentity
}

func (v *fakeVerifier) Verify(_ context.Context, idToken string) (*domain.GoogleIdentity, error) {
	identity, ok := v.identities[idToken]
	if !ok {
		return nil, errors.New("invalid id token")
	}
	return &identity, nil
}

type testEnv struct {
	store    *memory.Store
	mr       *miniredis.Miniredis
	redis    *database.Redis
	notifier *fakeNotifier
	verifier *fakeVerifier
	revoker  *RedisSessionRevoker
	jwt      *utils.JWTManager
	auth     *authService
	users    *userService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rdb.Close() })

	store := memory.NewStore()
	jwtManager := utils.NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	revoker := NewSessionRevoker(rdb, 15*time.Minute)
	notifier := &fakeNotifier{}
	verifier := &fakeVerifier{identities: map[string]domain.GoogleIdentity{}}

	deps := Dependencies{
		Repos:               store.Repositories(),
		JWT:                 jwtManager,
		Hasher:              utils.NewPasswordHasher(bcrypt.MinCost),
		Revoker:             revoker,
		Verifier:            verifier,
		Notifier:            notifier,
		PasswordResetExpiry: time.Hour,
	}

	return &testEnv{
		store:    store,
		mr:       mr,
		redis:    rdb,
		notifier: notifier,
		verifier: verifier,
		revoker:  revoker,
		jwt:      jwtManager,
		auth:     newAuthService(deps),
		users:    newUserService(deps),
	}
}

// registerVerified registers a user and consumes the verification email
func (e *testEnv) registerVerified(t *testing.T, email string) *AuthResult {
	t.Helper()
	ctx := context.Background()

	if err := e.auth.Register(ctx, RegisterInput{Email: email, Nickname: "tester", Password: testPassword}); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, ok := e.notifier.last("verification", utils.NormalizeEmail(email))
	if !ok {
		t.Fatalf("no verification mail for %s", email)
	}
	if err := e.auth.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	result, err := e.auth.Login(ctx, email, testPassword, domain.SessionMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return result
}
