package query

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	DefaultTopCount = 10
	MaxTopCount     = 100
)

// Page is a normalized 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage coerces number to >= 1 and size into [1, MaxPageSize]. A size
// below 1 falls back to DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of rows skipped before this page. It saturates at
// math.MaxInt instead of overflowing for very large page numbers.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// TotalPages is ceil(total / size), 0 for an empty set.
func (p Page) TotalPages(total int) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}

// ClampCount coerces a top-N count into [1, MaxTopCount]; values below 1
// fall back to DefaultTopCount.
func ClampCount(n int) int {
	switch {
	case n < 1:
		return DefaultTopCount
	case n > MaxTopCount:
		return MaxTopCount
	}
	return n
}

// CountInRange reports whether n is an acceptable top-N count as given.
func CountInRange(n int) bool {
	return n >= 1 && n <= MaxTopCount
}
