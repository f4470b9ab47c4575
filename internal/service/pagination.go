package service

const MaxPageLimit = 100

type (
	// PageRequest is a 1-based page number and a page size.
	PageRequest struct {
		Page  int
		Limit int
	}

	Page[T any] struct {
		Count int64
		Page  int
		Limit int
		Items []T
	}
)

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Normalize fills defaults and clamps the limit.
func (p PageRequest) Normalize(defaultLimit int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// check rejects pages past the end. The first page always exists.
func (p PageRequest) check(count int64) error {
	if p.Page > 1 && int64(p.Offset()) >= count {
		return NotFoundError("page", "invalid page")
	}
	return nil
}

func (p *Page[T]) HasNext() bool {
	return int64(p.Page*p.Limit) < p.Count
}

func (p *Page[T]) HasPrevious() bool {
	return p.Page > 1
}
