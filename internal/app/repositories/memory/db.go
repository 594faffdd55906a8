// Package memory implements the repositories in process memory. All tables
// share one lock, so multi-table writes such as approving a correction are atomic.
package memory

import (
	"sync"
	"time"

	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories"
)

// DB is the in-memory database
type DB struct {
	mu sync.RWMutex

	students      map[string]models.Student
	corrections   map[string]models.CorrectionRequest
	userRoles     map[string]models.UserRole
	accounts      map[string]models.Account
	academicYears map[string]models.AcademicYear
	revoked       map[string]time.Time

	// failWith, when set, is returned by every operation. Tests use it to
	// simulate an unreachable backend.
	failWith error
}

// Open creates an empty database
func Open() *DB {
	return &DB{
		students:      make(map[string]models.Student),
		corrections:   make(map[string]models.CorrectionRequest),
		userRoles:     make(map[string]models.UserRole),
		accounts:      make(map[string]models.Account),
		academicYears: make(map[string]models.AcademicYear),
		revoked:       make(map[string]time.Time),
	}
}

// FailWith makes every subsequent operation return err until called with nil
func (db *DB) FailWith(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.failWith = err
}

// NewRepositories wires every repository to db
func NewRepositories(db *DB) *repositories.Repositories {
	return &repositories.Repositories{
		Students:      NewStudentRepository(db),
		Corrections:   NewCorrectionRepository(db),
		UserRoles:     NewUserRoleRepository(db),
		Accounts:      NewAccountRepository(db),
		AcademicYears: NewAcademicYearRepository(db),
		Tokens:        NewTokenRepository(db),
	}
}
