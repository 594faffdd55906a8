package helpers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 7, 15, 8, 30, 0, 0, time.UTC)
	token := EncodeCursor(Cursor{CreatedAt: at, ID: "b"})

	c, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.True(t, c.CreatedAt.Equal(at))
	assert.Equal(t, "b", c.ID)

	assert.True(t, c.After(at.Add(-time.Second), "z"))
	assert.True(t, c.After(at, "a"))
	assert.False(t, c.After(at, "b"))
	assert.False(t, c.After(at, "c"))
	assert.False(t, c.After(at.Add(time.Second), "a"))
}

func TestDecodeCursor(t *testing.T) {
	c, err := DecodeCursor("")
	assert.NoError(t, err)
	assert.Nil(t, c)

	_, err = DecodeCursor("!!not-base64!!")
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestNormalizePageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, NormalizePageSize(0))
	assert.Equal(t, 5, NormalizePageSize(5))
	assert.Equal(t, MaxPageSize, NormalizePageSize(1000))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%50\%\_a%`, LikePattern("50%_a"))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Minute, ParseDuration("90m", time.Hour))
	assert.Equal(t, time.Hour, ParseDuration("", time.Hour))
	assert.Equal(t, time.Hour, ParseDuration("soon", time.Hour))
	assert.Equal(t, time.Hour, ParseDuration("-5s", time.Hour))
}
