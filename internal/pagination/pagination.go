package pagination

import (
	"gorm.io/gorm"
)

const (
	// DefaultLimit is used when a request carries no limit.
	DefaultLimit = 20
	// MaxLimit caps the limit of a single page.
	MaxLimit = 100
)

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Defaults fills in the default limit and clamps out-of-range values.
func (p *PageRequest) Defaults() {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse wraps a page of items with metadata.
type PageResponse[T any] struct {
	Data    []T   `json:"data"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, req PageRequest, total int64) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data:    data,
		Limit:   req.Limit,
		Offset:  req.Offset,
		Total:   total,
		HasMore: int64(req.Offset+len(data)) < total,
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT.
func Paginate(limit, offset int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(offset).Limit(limit)
	}
}
