package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

type sample struct {
	Name string `json:"name" validate:"required,min=2"`
	NIK  string `json:"nik" validate:"omitempty,digits"`
	Born string `json:"born" validate:"omitempty,isodate"`
	Year string `json:"year" validate:"omitempty,academicyear"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name       string
		in         sample
		wantFields []string
	}{
		{name: "valid", in: sample{Name: "Ani", NIK: "3201", Born: "2010-05-01", Year: "2024/2025"}},
		{name: "empty optional fields", in: sample{Name: "Ani"}},
		{name: "missing name", in: sample{}, wantFields: []string{"name"}},
		{name: "non digit nik", in: sample{Name: "Ani", NIK: "32A1"}, wantFields: []string{"nik"}},
		{name: "bad date", in: sample{Name: "Ani", Born: "01-05-2010"}, wantFields: []string{"born"}},
		{
			name:       "several failures",
			in:         sample{Name: "A", NIK: "x", Year: "2024-2025"},
			wantFields: []string{"name", "nik", "year"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

			var verr *apperrors.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantFields, verr.FieldNames())
		})
	}
}

func TestPatterns(t *testing.T) {
	assert.True(t, IsAcademicYear("2024/2025"))
	assert.False(t, IsAcademicYear("2024/25"))
	assert.False(t, IsAcademicYear(" 2024/2025"))

	assert.True(t, IsEmail("Guru@Sekolah.sch.id"))
	assert.False(t, IsEmail("guru@"))
}
