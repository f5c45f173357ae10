package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"travel-planner/internal/domain"
	"travel-planner/internal/repository"
)

type memoryAccountRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.Account
	findErr error
	calls   int
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{byID: make(map[string]domain.Account)}
}

func (m *memoryAccountRepo) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.findErr != nil {
		return domain.Account{}, m.findErr
	}
	email = repository.NormalizeEmail(email)
	for _, a := range m.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.Account{}, repository.ErrNotFound
}

func (m *memoryAccountRepo) FindByID(_ context.Context, id string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	a, ok := m.byID[id]
	if !ok {
		return domain.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *memoryAccountRepo) Insert(_ context.Context, account domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.byID[account.ID] = account
	return nil
}

func newTestAccountService(repo repository.AccountRepository, limiter LoginRateLimiter) *AccountService {
	svc := NewAccountService(zap.NewNop(), repo, NewJWTService("secret", 0), limiter)
	svc.hashCost = bcrypt.MinCost
	return svc
}

func TestAccountService_RegisterNormalizesAndLogsIn(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := newTestAccountService(repo, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "Ann@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.Token == "" || res.User.Email != "ann@example.com" || res.User.Name != "Ann" {
		t.Fatalf("unexpected register result: %+v", res)
	}
	stored, err := repo.FindByID(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("stored account: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
		t.Fatalf("expected hashed password, got %q", stored.PasswordHash)
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccountService_RegisterValidation(t *testing.T) {
	cases := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{name: "missing name", input: RegisterInput{Email: "a@b.c", Password: "secret1"}, field: "name"},
		{name: "blank email", input: RegisterInput{Name: "Ann", Email: "   ", Password: "secret1"}, field: "email"},
		{name: "missing password", input: RegisterInput{Name: "Ann", Email: "a@b.c"}, field: "password"},
		{name: "short password", input: RegisterInput{Name: "Ann", Email: "a@b.c", Password: "12345"}, field: "password"},
		{name: "short password and missing name", input: RegisterInput{Email: "a@b.c", Password: "123"}, field: "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemoryAccountRepo()
			svc := newTestAccountService(repo, nil)

			_, err := svc.Register(context.Background(), tc.input)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(vErr.Message, tc.field) {
				t.Fatalf("expected message to mention %q, got %q", tc.field, vErr.Message)
			}
			if repo.calls != 0 {
				t.Fatalf("validation failure must not touch the store")
			}
		})
	}
}

func TestAccountService_RegisterDuplicateEmail(t *testing.T) {
	svc := newTestAccountService(newMemoryAccountRepo(), nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Name: "Other", Email: "  ANN@example.COM", Password: "secret2"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAccountService_ConcurrentRegisterSameEmail(t *testing.T) {
	svc := newTestAccountService(newMemoryAccountRepo(), nil)
	emails := []string{"ann@example.com", " Ann@Example.com", "ANN@EXAMPLE.COM ", "ann@example.com"}

	var wg sync.WaitGroup
	errs := make([]error, len(emails))
	for i, email := range emails {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), RegisterInput{Name: "Ann", Email: email, Password: "secret1"})
		}(i, email)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrEmailTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != len(emails)-1 {
		t.Fatalf("expected exactly one success, got ok=%d conflicts=%d", ok, conflicts)
	}
}

func TestAccountService_LoginDoesNotRevealAccounts(t *testing.T) {
	svc := newTestAccountService(newMemoryAccountRepo(), nil)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPass := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "nope-nope"})
	_, unknown := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "nope-nope"})
	if !errors.Is(wrongPass, ErrInvalidCredentials) || !errors.Is(unknown, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", wrongPass, unknown)
	}
	if wrongPass.Error() != unknown.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPass, unknown)
	}
}

func TestAccountService_LoginValidation(t *testing.T) {
	svc := newTestAccountService(newMemoryAccountRepo(), nil)

	_, err := svc.Login(context.Background(), LoginInput{Email: "ann@example.com"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAccountService_LoginRateLimited(t *testing.T) {
	svc := newTestAccountService(newMemoryAccountRepo(), NewMemoryLoginRateLimiter(time.Minute, 2))
	ctx := context.Background()
	in := LoginInput{Email: "ann@example.com", Password: "secret1"}

	for i := 0; i < 2; i++ {
		if _, err := svc.Login(ctx, in); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := svc.Login(ctx, in); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestAccountService_TokenResolvesToAccount(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := newTestAccountService(repo, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	claims, err := svc.tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	me, err := svc.WhoAmI(ctx, claims.Subject)
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if me.ID != res.User.ID || me.Email != "ann@example.com" {
		t.Fatalf("token resolved to a different account: %+v", me)
	}

	if _, err := svc.WhoAmI(ctx, "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_StorageUnavailable(t *testing.T) {
	repo := newMemoryAccountRepo()
	repo.findErr = repository.ErrStorageUnavailable
	svc := newTestAccountService(repo, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	if !errors.Is(err, repository.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	_, err = svc.Login(context.Background(), LoginInput{Email: "ann@example.com", Password: "secret1"})
	if !errors.Is(err, repository.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestPublicAccount_OmitsPasswordHash(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := newTestAccountService(repo, nil)
	res, err := svc.Register(context.Background(), RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(strings.ToLower(string(raw)), "passwordhash") || strings.Contains(string(raw), "$2a$") {
		t.Fatalf("public view leaks password hash: %s", raw)
	}
}

func TestAccountService_RegisterRejectsOverlongPassword(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := newTestAccountService(repo, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: strings.Repeat("a", 73)})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Message != "password must be at most 72 bytes" {
		t.Fatalf("unexpected message %q", vErr.Message)
	}
	if repo.calls != 0 {
		t.Fatalf("rejected password must not touch the store")
	}

	// 24 runes de 3 bytes = 72 bytes: justo en el límite.
	if _, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: strings.Repeat("€", 24)}); err != nil {
		t.Fatalf("72-byte password must be accepted: %v", err)
	}
	_, err = svc.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: strings.Repeat("€", 25)})
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for 75-byte password, got %v", err)
	}
}
