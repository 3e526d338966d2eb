package common

const (
	// DefaultPageSize applies when a listing query omits the limit.
	DefaultPageSize = 10
	// MaxPageSize is the hard cap on listing page sizes.
	MaxPageSize = 30
)

// ClampPageSize normalizes a caller-supplied page size to [1, MaxPageSize],
// substituting the default for zero.
func ClampPageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
