package repositories

import (
	"context"
	"time"

	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/db"
	"github.com/yigit/schoolrecords/internal/pkg/helpers"
)

// StudentQuery selects one page of students within an academic year
type StudentQuery struct {
	AcademicYear string
	Search       string          // Optional case-insensitive match on full name, NISN or kelas
	After        *helpers.Cursor // Start after this position, nil for the first page
	Limit        int
}

// StudentRepository stores student records
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id string) (*models.Student, error)
	// UpdateFields merges fields into the profile and bumps updated_at in one statement.
	UpdateFields(ctx context.Context, id string, fields map[string]string, at time.Time) (*models.Student, error)
	Delete(ctx context.Context, id string) error
	// List returns up to q.Limit records ordered by created_at DESC, id DESC.
	List(ctx context.Context, q StudentQuery) ([]models.Student, error)
	ListAll(ctx context.Context, academicYear string) ([]models.Student, error)
	CountByYear(ctx context.Context, academicYear string) (int, error)
}

// CorrectionRepository stores correction requests
type CorrectionRepository interface {
	Create(ctx context.Context, req *models.CorrectionRequest) error
	GetByID(ctx context.Context, id string) (*models.CorrectionRequest, error)
	ListPending(ctx context.Context) ([]models.CorrectionRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CorrectionRequest, error)
	CountPending(ctx context.Context) (int, error)
	// Resolve moves a pending request to status and, for approvals, writes the
	// new value into the student record. Both writes commit together or not at all.
	Resolve(ctx context.Context, id string, status models.CorrectionStatus, resolverID string, at time.Time) (*models.CorrectionRequest, error)
}

// UserRoleRepository stores authorization roles
type UserRoleRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserRole, error)
	// CreateIfMissing inserts role unless one exists and returns the stored row.
	CreateIfMissing(ctx context.Context, role *models.UserRole) (*models.UserRole, error)
	UpdateRole(ctx context.Context, userID string, role models.RoleType, at time.Time) error
	List(ctx context.Context) ([]models.UserRole, error)
}

// AccountRepository stores login credentials
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// AcademicYearRepository stores the catalog of selectable academic years
type AcademicYearRepository interface {
	Create(ctx context.Context, year *models.AcademicYear) error
	GetByID(ctx context.Context, id string) (*models.AcademicYear, error)
	ExistsByYear(ctx context.Context, year string) (bool, error)
	// List returns the catalog ordered by year, newest first.
	List(ctx context.Context) ([]models.AcademicYear, error)
	Delete(ctx context.Context, id string) error
}

// TokenRepository records revoked access tokens until they expire
type TokenRepository interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	Students      StudentRepository
	Corrections   CorrectionRepository
	UserRoles     UserRoleRepository
	Accounts      AccountRepository
	AcademicYears AcademicYearRepository
	Tokens        TokenRepository
}

// NewRepositories initializes the Postgres-backed repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		Students:      NewStudentRepository(database.Pool),
		Corrections:   NewCorrectionRepository(database),
		UserRoles:     NewUserRoleRepository(database.Pool),
		Accounts:      NewAccountRepository(database.Pool),
		AcademicYears: NewAcademicYearRepository(database.Pool),
		Tokens:        NewTokenRepository(database.Pool),
	}
}
