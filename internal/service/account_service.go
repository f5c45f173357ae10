package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"travel-planner/internal/domain"
	"travel-planner/internal/repository"
)

const maxPasswordBytes = 72

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("user not found")
	ErrRateLimited        = errors.New("rate limited")
)

// AccountService coordina registro, login e identidad de cuentas.
type AccountService struct {
	logger   *zap.Logger
	accounts repository.AccountRepository
	tokens   *JWTService
	limiter  LoginRateLimiter
	hashCost int
	now      func() time.Time

	// registerMu serializa la secuencia verificar-email + insertar.
	registerMu sync.Mutex
}

func NewAccountService(logger *zap.Logger, accounts repository.AccountRepository, tokens *JWTService, limiter LoginRateLimiter) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		logger:   logger,
		accounts: accounts,
		tokens:   tokens,
		limiter:  limiter,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult es la respuesta de register y login.
type AuthResult struct {
	Token string               `json:"token"`
	User  domain.PublicAccount `json:"user"`
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	if s.accounts == nil || s.tokens == nil {
		return AuthResult{}, errors.New("account service not configured")
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = repository.NormalizeEmail(input.Email)
	if err := validateStruct(input); err != nil {
		return AuthResult{}, err
	}
	// bcrypt solo usa los primeros 72 bytes; validator cuenta runas, no bytes.
	if len(input.Password) > maxPasswordBytes {
		return AuthResult{}, &ValidationError{Message: fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	account := domain.Account{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.insertUnique(ctx, account); err != nil {
		return AuthResult{}, err
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	s.logger.Info("account registered", zap.String("account_id", account.ID))
	return AuthResult{Token: token, User: account.Public()}, nil
}

func (s *AccountService) insertUnique(ctx context.Context, account domain.Account) error {
	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	_, err := s.accounts.FindByEmail(ctx, account.Email)
	switch {
	case err == nil:
		return ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("find account: %w", err)
	}

	if err := s.accounts.Insert(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Login no distingue entre email desconocido y contraseña incorrecta.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	if s.accounts == nil || s.tokens == nil {
		return AuthResult{}, errors.New("account service not configured")
	}
	if err := validateStruct(input); err != nil {
		return AuthResult{}, err
	}

	email := repository.NormalizeEmail(input.Email)
	if s.limiter != nil && !s.limiter.Allow(email) {
		return AuthResult{}, ErrRateLimited
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Mismo costo de bcrypt que con una cuenta existente.
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(input.Password))
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{Token: token, User: account.Public()}, nil
}

// WhoAmI resuelve la cuenta del subject de un token ya verificado.
func (s *AccountService) WhoAmI(ctx context.Context, accountID string) (domain.PublicAccount, error) {
	if s.accounts == nil {
		return domain.PublicAccount{}, errors.New("account service not configured")
	}
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Las cuentas nunca se borran: un token válido sin cuenta es una inconsistencia.
			s.logger.Warn("token subject has no account", zap.String("account_id", accountID))
			return domain.PublicAccount{}, ErrAccountNotFound
		}
		return domain.PublicAccount{}, fmt.Errorf("find account: %w", err)
	}
	return account.Public(), nil
}

var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("travel-planner-dummy"), bcrypt.DefaultCost)
	if err != nil {
		return nil
	}
	return hash
})
