package util

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Calculate turns a 1-based page and a page size into an offset and limit,
// clamping bad input to the first page and the default size.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

// Page returns the window [from, from+limit) of items, or an empty slice when
// from is past the end.
func Page[T any](items []T, from, limit int) []T {
	if from >= len(items) {
		return []T{}
	}
	end := min(from+limit, len(items))
	return items[from:end]
}
