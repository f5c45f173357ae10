package repository

import (
	"context"
	"errors"
	"strings"

	"travel-planner/internal/domain"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// AccountRepository define el contrato de persistencia para cuentas.
// Insert no sustituye la verificación de unicidad del llamador; las implementaciones
// devuelven ErrDuplicateEmail cuando detectan el choque al escribir.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	FindByID(ctx context.Context, id string) (domain.Account, error)
	Insert(ctx context.Context, account domain.Account) error
}

// NormalizeEmail aplica trim y minúsculas; es la clave de búsqueda de cuentas.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
