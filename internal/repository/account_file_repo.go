package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"travel-planner/internal/domain"
)

// accountRecord es la forma en disco; a diferencia de domain.Account incluye el hash.
type accountRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FileAccountRepository implementa AccountRepository sobre un archivo JSON plano.
// Cada Insert reescribe la colección completa.
type FileAccountRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileAccountRepository(path string) *FileAccountRepository {
	return &FileAccountRepository{path: path}
}

func (r *FileAccountRepository) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readAll()
	if err != nil {
		return domain.Account{}, err
	}
	email = NormalizeEmail(email)
	for _, rec := range records {
		if rec.Email == email {
			return rec.toDomain(), nil
		}
	}
	return domain.Account{}, ErrNotFound
}

func (r *FileAccountRepository) FindByID(_ context.Context, id string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readAll()
	if err != nil {
		return domain.Account{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec.toDomain(), nil
		}
	}
	return domain.Account{}, ErrNotFound
}

func (r *FileAccountRepository) Insert(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readAll()
	if err != nil {
		return err
	}
	email := NormalizeEmail(account.Email)
	for _, rec := range records {
		if rec.Email == email {
			return ErrDuplicateEmail
		}
	}
	rec := fromDomain(account)
	rec.Email = email
	records = append(records, rec)
	return r.writeAll(records)
}

// readAll crea el archivo con "[]" en el primer acceso. Un archivo ilegible o corrupto
// se reporta como ErrStorageUnavailable y no se repara.
func (r *FileAccountRepository) readAll() ([]accountRecord, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := r.writeAll([]accountRecord{}); err != nil {
			return nil, err
		}
		return []accountRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorageUnavailable, r.path, err)
	}
	if len(raw) == 0 {
		return []accountRecord{}, nil
	}
	var records []accountRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStorageUnavailable, r.path, err)
	}
	return records, nil
}

func (r *FileAccountRepository) writeAll(records []accountRecord) error {
	if dir := filepath.Dir(r.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %v", ErrStorageUnavailable, dir, err)
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorageUnavailable, tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", ErrStorageUnavailable, tmp, err)
	}
	return nil
}

func fromDomain(a domain.Account) accountRecord {
	return accountRecord{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	}
}

func (r accountRecord) toDomain() domain.Account {
	return domain.Account{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}
