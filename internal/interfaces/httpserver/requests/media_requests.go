package requests

import (
	"github.com/janhq/cms-media/internal/domain/media"
)

// ListMediaQuery is the query string of GET /v1/media.
type ListMediaQuery struct {
	Directory string `form:"directory"`
	Offset    int    `form:"offset"`
	Limit     int    `form:"limit"`
}

// ToDomain converts the query to list options. Window clamping happens in the store.
func (q *ListMediaQuery) ToDomain() *media.ListOptions {
	return &media.ListOptions{
		Directory: q.Directory,
		Offset:    q.Offset,
		Limit:     q.Limit,
	}
}

// PreviewQuery is the query string of GET /v1/media/preview.
type PreviewQuery struct {
	Filename string `form:"filename" binding:"required"`
}

// ListIssuancesQuery is the query string of GET /v1/credentials/issuances.
type ListIssuancesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=0"`
}
