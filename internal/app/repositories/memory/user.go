package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

// UserRoleRepository stores user roles in memory
type UserRoleRepository struct {
	db *DB
}

var _ repositories.UserRoleRepository = (*UserRoleRepository)(nil)

// NewUserRoleRepository creates a UserRoleRepository
func NewUserRoleRepository(db *DB) *UserRoleRepository {
	return &UserRoleRepository{db: db}
}

func (r *UserRoleRepository) GetByUserID(_ context.Context, userID string) (*models.UserRole, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("get user role"); err != nil {
		return nil, err
	}
	role, ok := r.db.userRoles[userID]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("user role not found")
	}
	return &role, nil
}

func (r *UserRoleRepository) CreateIfMissing(_ context.Context, role *models.UserRole) (*models.UserRole, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("create user role"); err != nil {
		return nil, err
	}
	if existing, ok := r.db.userRoles[role.UserID]; ok {
		return &existing, nil
	}
	r.db.userRoles[role.UserID] = *role
	stored := *role
	return &stored, nil
}

func (r *UserRoleRepository) UpdateRole(_ context.Context, userID string, role models.RoleType, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("update user role"); err != nil {
		return err
	}
	existing, ok := r.db.userRoles[userID]
	if !ok {
		return apperrors.NewResourceNotFoundError("user role not found")
	}
	existing.Role = role
	existing.UpdatedAt = at
	r.db.userRoles[userID] = existing
	return nil
}

func (r *UserRoleRepository) List(_ context.Context) ([]models.UserRole, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("list user roles"); err != nil {
		return nil, err
	}
	out := make([]models.UserRole, 0, len(r.db.userRoles))
	for _, role := range r.db.userRoles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool {
		// Roles without an email sort last, like NULLS LAST in Postgres.
		if (out[i].Email == "") != (out[j].Email == "") {
			return out[j].Email == ""
		}
		if out[i].Email == out[j].Email {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

// AccountRepository stores accounts in memory
type AccountRepository struct {
	db *DB
}

var _ repositories.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates an AccountRepository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(_ context.Context, account *models.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("create account"); err != nil {
		return err
	}
	email := strings.ToLower(account.Email)
	for _, a := range r.db.accounts {
		if a.Email == email {
			return apperrors.NewConflictError("an account with this email already exists")
		}
	}
	stored := *account
	stored.Email = email
	r.db.accounts[stored.ID] = stored
	return nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("get account"); err != nil {
		return nil, err
	}
	email = strings.ToLower(email)
	for _, a := range r.db.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, apperrors.NewResourceNotFoundError("account not found")
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("get account"); err != nil {
		return nil, err
	}
	a, ok := r.db.accounts[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("account not found")
	}
	return &a, nil
}

// TokenRepository stores token revocations in memory
type TokenRepository struct {
	db *DB
}

var _ repositories.TokenRepository = (*TokenRepository)(nil)

// NewTokenRepository creates a TokenRepository
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("revoke token"); err != nil {
		return err
	}
	r.db.revoked[tokenID] = expiresAt
	return nil
}

func (r *TokenRepository) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("check revoked token"); err != nil {
		return false, err
	}
	_, ok := r.db.revoked[tokenID]
	return ok, nil
}

func (r *TokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("cleanup revoked tokens"); err != nil {
		return 0, err
	}
	var n int64
	for id, exp := range r.db.revoked {
		if exp.Before(now) {
			delete(r.db.revoked, id)
			n++
		}
	}
	return n, nil
}
