package memory

import (
	"context"
	"sort"

	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

// AcademicYearRepository stores the academic year catalog in memory
type AcademicYearRepository struct {
	db *DB
}

var _ repositories.AcademicYearRepository = (*AcademicYearRepository)(nil)

// NewAcademicYearRepository creates an AcademicYearRepository
func NewAcademicYearRepository(db *DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

func (r *AcademicYearRepository) Create(_ context.Context, year *models.AcademicYear) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("create academic year"); err != nil {
		return err
	}
	r.db.academicYears[year.ID] = *year
	return nil
}

func (r *AcademicYearRepository) GetByID(_ context.Context, id string) (*models.AcademicYear, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("get academic year"); err != nil {
		return nil, err
	}
	y, ok := r.db.academicYears[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("academic year not found")
	}
	return &y, nil
}

func (r *AcademicYearRepository) ExistsByYear(_ context.Context, year string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("check academic year"); err != nil {
		return false, err
	}
	for _, y := range r.db.academicYears {
		if y.Year == year {
			return true, nil
		}
	}
	return false, nil
}

func (r *AcademicYearRepository) List(_ context.Context) ([]models.AcademicYear, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("list academic years"); err != nil {
		return nil, err
	}
	out := make([]models.AcademicYear, 0, len(r.db.academicYears))
	for _, y := range r.db.academicYears {
		out = append(out, y)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year == out[j].Year {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Year > out[j].Year
	})
	return out, nil
}

func (r *AcademicYearRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("delete academic year"); err != nil {
		return err
	}
	if _, ok := r.db.academicYears[id]; !ok {
		return apperrors.NewResourceNotFoundError("academic year not found")
	}
	delete(r.db.academicYears, id)
	return nil
}
