package pagination

const (
	// DefaultPageSize is the page size used when a caller does not supply one.
	DefaultPageSize = 10
	// MaxPageSize caps how many rows a single page can carry.
	MaxPageSize = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Meta describes the page that was actually served.
type Meta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NormalizePageSize enforces the configured default and maximum sizes.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// NormalizePage clamps page numbers to 1-based values.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Bounds returns the half-open [start, end) slice window for the requested page
// over total items, plus the served metadata. Pages past the end yield an empty window.
func Bounds(params Params, total int) (int, int, Meta) {
	size := NormalizePageSize(params.PageSize)
	page := NormalizePage(params.Page)

	totalPages := 0
	if total > 0 {
		totalPages = (total + size - 1) / size
	}

	meta := Meta{
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: totalPages,
	}

	start := (page - 1) * size
	if start >= total {
		return total, total, meta
	}
	end := start + size
	if end > total {
		end = total
	}
	return start, end, meta
}

// Slice returns the requested page of items. The returned slice never aliases items.
func Slice[T any](items []T, params Params) ([]T, Meta) {
	start, end, meta := Bounds(params, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, meta
}
