package pagination

const (
	DefaultPageSize = 20
	MaxPageSize     = 250
)

// Pagination is zero-based page/size paging as used by the list endpoints.
type Pagination struct {
	Page int `form:"page,default=0" validate:"gte=0"`
	Size int `form:"size,default=20" validate:"gte=1,lte=250"`
}

type PageInfo struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// Normalize clamps page and size into their valid ranges.
func (p Pagination) Normalize() Pagination {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	p = p.Normalize()
	return p.Page * p.Size
}

func BuildPageInfo(p Pagination, total int64) PageInfo {
	p = p.Normalize()
	pages := int(total / int64(p.Size))
	if total%int64(p.Size) != 0 {
		pages++
	}
	return PageInfo{
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// Slice returns the requested page of an already materialized list.
func Slice[T any](items []T, p Pagination) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
