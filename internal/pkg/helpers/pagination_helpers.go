package helpers

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Cursor marks the position after the last record of a page.
// Listings are ordered by createdAt DESC, id DESC.
type Cursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

// NormalizePageSize clamps size into [1, MaxPageSize], using DefaultPageSize for non-positive input.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// EncodeCursor returns the opaque token for c.
func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token yields nil.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "cursor", Message: "is malformed"})
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "cursor", Message: "is malformed"})
	}
	return &c, nil
}

// After reports whether a record at (createdAt, id) sorts after the cursor position.
func (c *Cursor) After(createdAt time.Time, id string) bool {
	if c == nil {
		return true
	}
	if createdAt.Equal(c.CreatedAt) {
		return id < c.ID
	}
	return createdAt.Before(c.CreatedAt)
}

// ParsePaginationParams extracts pageSize and cursor query parameters from the request
func ParsePaginationParams(c *gin.Context) (pageSize int, cursor string) {
	size, err := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(DefaultPageSize)))
	if err != nil {
		size = DefaultPageSize
	}
	return NormalizePageSize(size), c.Query("cursor")
}
