package domain

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps Page*Size far below the int range used by OFFSET and skip.
	MaxPage = 1_000_000
)

// PageRequest is a zero based page selector.
type PageRequest struct {
	Page int
	Size int
}

func NewPageRequest(page, size, defaultSize int) PageRequest {
	if page < 0 {
		page = 0
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size < 1 {
		size = defaultSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Page: page, Size: size}
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	CurrentPage   int   `json:"currentPage"`
	Size          int   `json:"size"`
}

func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = make([]T, 0)
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		TotalPages:    totalPages,
		TotalElements: total,
		CurrentPage:   req.Page,
		Size:          req.Size,
	}
}

// MapPage converts the content of a page, keeping its paging metadata.
func MapPage[T, R any](p Page[T], fn func(T) R) Page[R] {
	out := make([]R, 0, len(p.Content))
	for _, v := range p.Content {
		out = append(out, fn(v))
	}
	return Page[R]{
		Content:       out,
		TotalPages:    p.TotalPages,
		TotalElements: p.TotalElements,
		CurrentPage:   p.CurrentPage,
		Size:          p.Size,
	}
}
