package memory

import (
	"context"
	"sort"
	"time"

	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

// CorrectionRepository stores correction requests in memory
type CorrectionRepository struct {
	db *DB
}

var _ repositories.CorrectionRepository = (*CorrectionRepository)(nil)

// NewCorrectionRepository creates a CorrectionRepository
func NewCorrectionRepository(db *DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

func (r *CorrectionRepository) Create(_ context.Context, req *models.CorrectionRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("create correction request"); err != nil {
		return err
	}
	r.db.corrections[req.ID] = *req
	return nil
}

func (r *CorrectionRepository) GetByID(_ context.Context, id string) (*models.CorrectionRequest, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("get correction request"); err != nil {
		return nil, err
	}
	req, ok := r.db.corrections[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("correction request not found")
	}
	return &req, nil
}

func (r *CorrectionRepository) ListPending(_ context.Context) ([]models.CorrectionRequest, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("list pending corrections"); err != nil {
		return nil, err
	}
	out := []models.CorrectionRequest{}
	for _, req := range r.db.corrections {
		if req.IsPending() {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *CorrectionRepository) ListByStudent(_ context.Context, studentID string) ([]models.CorrectionRequest, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("list student corrections"); err != nil {
		return nil, err
	}
	out := []models.CorrectionRequest{}
	for _, req := range r.db.corrections {
		if req.StudentID == studentID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestDate.Equal(out[j].RequestDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].RequestDate.After(out[j].RequestDate)
	})
	return out, nil
}

func (r *CorrectionRepository) CountPending(_ context.Context) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if err := r.db.check("count pending corrections"); err != nil {
		return 0, err
	}
	n := 0
	for _, req := range r.db.corrections {
		if req.IsPending() {
			n++
		}
	}
	return n, nil
}

func (r *CorrectionRepository) Resolve(_ context.Context, id string, status models.CorrectionStatus, resolverID string, at time.Time) (*models.CorrectionRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("resolve correction request"); err != nil {
		return nil, err
	}

	req, ok := r.db.corrections[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("correction request not found")
	}
	if !req.IsPending() {
		return nil, apperrors.ErrAlreadyResolved
	}

	if status == models.CorrectionApproved {
		// Nothing has been written yet, so a failure here leaves both tables untouched.
		if _, err := r.db.updateStudentFields(req.StudentID, map[string]string{req.FieldToCorrect: req.NewValue}, at); err != nil {
			return nil, err
		}
	}

	req.Status = status
	req.ResolvedByUserID = &resolverID
	req.ResolutionDate = &at
	r.db.corrections[id] = req
	return &req, nil
}
