package repository

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// PageRequest selects one page of a listing. Zero values fall back to the
// defaults; PerPage is clamped to MaxPerPage.
type PageRequest struct {
	Page    int
	PerPage int
}

func (p PageRequest) normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p PageRequest) offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is one slice of a listing together with the total match count.
type Page[T any] struct {
	Items   []T
	Total   int64
	PerPage int
	Page    int
}
