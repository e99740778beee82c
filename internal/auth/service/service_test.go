package service

import (
	"context"
	"testing"
	"time"

	"crm_pipeline_backend/internal/auth/password"
	"crm_pipeline_backend/internal/auth/repository"
	"crm_pipeline_backend/platform/apperr"
	"crm_pipeline_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type fakeStore struct {
	users map[uuid.UUID]repository.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[uuid.UUID]repository.User)}
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (repository.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return repository.User{}, repository.ErrNotFound
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	user, ok := f.users[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	user, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	f.users[id] = user
	return nil
}

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string       { return "test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration { return 15 * time.Minute }

func seedUser(t *testing.T, store *fakeStore, plain string) repository.User {
	t.Helper()
	hash, err := password.Hash(plain)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := repository.User{
		ID:           uuid.New(),
		Name:         "Ana Souza",
		Email:        "ana@example.com",
		PasswordHash: hash,
		Role:         "seller",
		Active:       true,
	}
	store.users[user.ID] = user
	return user
}

func newTestService(store *fakeStore) *Service {
	return New(store, testConfig{}, logger.New("test"))
}

func TestSignIn_IssuesAccessToken(t *testing.T) {
	store := newFakeStore()
	user := seedUser(t, store, "correct horse")
	svc := newTestService(store)

	resp, err := svc.SignIn(context.Background(), "ana@example.com", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := jwt.Parse(resp.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token must verify against the configured secret: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != user.ID.String() {
		t.Fatalf("expected sub %s, got %v", user.ID, claims["sub"])
	}
	if claims["type"] != "access" {
		t.Fatalf("expected access token type, got %v", claims["type"])
	}
}

func TestSignIn_FailuresAreIndistinguishable(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "correct horse")
	svc := newTestService(store)

	_, errUnknown := svc.SignIn(context.Background(), "nobody@example.com", "whatever")
	_, errWrongPass := svc.SignIn(context.Background(), "ana@example.com", "wrong")

	if !apperr.Is(errUnknown, apperr.KindUnauthorized) || !apperr.Is(errWrongPass, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for both, got %v and %v", errUnknown, errWrongPass)
	}
	if errUnknown.Error() != errWrongPass.Error() {
		t.Fatalf("error messages must not reveal which accounts exist: %q vs %q", errUnknown, errWrongPass)
	}
}

func TestChangePassword(t *testing.T) {
	store := newFakeStore()
	user := seedUser(t, store, "old password")
	svc := newTestService(store)

	err := svc.ChangePassword(context.Background(), user.ID, "wrong", "new password longer")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for wrong current password, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "old password", "new password longer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SignIn(context.Background(), "ana@example.com", "new password longer"); err != nil {
		t.Fatalf("new password must sign in: %v", err)
	}
	if _, err := svc.SignIn(context.Background(), "ana@example.com", "old password"); err == nil {
		t.Fatal("old password must stop working")
	}
}
