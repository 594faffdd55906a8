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

func (db *DB) check(op string) error {
	if db.failWith != nil {
		return apperrors.NewStoreUnavailableError(op, db.failWith)
	}
	return nil
}

// StudentRepository stores students in memory
type StudentRepository struct {
	db *DB
}

var _ repositories.StudentRepository = (*StudentRepository)(nil)

// NewStudentRepository creates a StudentRepository
func NewStudentRepository(db *DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Create(_ context.Context, student *models.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("create student"); err != nil {
		return err
	}
	if _, ok := r.db.students[student.ID]; ok {
		return apperrors.NewConflictError("student already exists")
	}
	r.db.students[student.ID] = *student
	return nil
}

func (r *StudentRepository) GetByID(_ context.Context, id string) (*models.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("get student"); err != nil {
		return nil, err
	}
	s, ok := r.db.students[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("student not found")
	}
	return &s, nil
}

func (r *StudentRepository) UpdateFields(_ context.Context, id string, fields map[string]string, at time.Time) (*models.Student, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("update student"); err != nil {
		return nil, err
	}
	return r.db.updateStudentFields(id, fields, at)
}

// updateStudentFields must be called with db.mu held for writing.
func (db *DB) updateStudentFields(id string, fields map[string]string, at time.Time) (*models.Student, error) {
	s, ok := db.students[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("student not found")
	}
	for name, value := range fields {
		if !s.Profile.Set(name, value) {
			return nil, apperrors.NewValidationError(apperrors.FieldError{Field: name, Message: "is not a student field"})
		}
	}
	s.UpdatedAt = at
	db.students[id] = s
	return &s, nil
}

func (r *StudentRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("delete student"); err != nil {
		return err
	}
	if _, ok := r.db.students[id]; !ok {
		return apperrors.NewResourceNotFoundError("student not found")
	}
	delete(r.db.students, id)
	return nil
}

func (r *StudentRepository) List(_ context.Context, q repositories.StudentQuery) ([]models.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("list students"); err != nil {
		return nil, err
	}

	search := strings.ToLower(q.Search)
	out := []models.Student{}
	for _, s := range r.db.students {
		if s.AcademicYear != q.AcademicYear {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Profile.FullName), search) &&
			!strings.Contains(strings.ToLower(s.Profile.NISN), search) &&
			!strings.Contains(strings.ToLower(s.Profile.Kelas), search) {
			continue
		}
		if !q.After.After(s.CreatedAt, s.ID) {
			continue
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *StudentRepository) ListAll(ctx context.Context, academicYear string) ([]models.Student, error) {
	return r.List(ctx, repositories.StudentQuery{AcademicYear: academicYear})
}

func (r *StudentRepository) CountByYear(_ context.Context, academicYear string) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("count students"); err != nil {
		return 0, err
	}
	n := 0
	for _, s := range r.db.students {
		if s.AcademicYear == academicYear {
			n++
		}
	}
	return n, nil
}
