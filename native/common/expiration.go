package common

import (
	"fmt"

	"tokenvault/core/types"
)

// Expiration is a point after which a time-gated record is considered
// expired, expressed either as a block height or as a unix timestamp. The
// zero value never expires.
type Expiration struct {
	// Height, when non-zero, expires the record once block.Height >= Height.
	Height uint64
	// Time, when non-zero, expires the record once block.Time >= Time.
	Time uint64
}

// AtHeight builds a height-based expiration.
func AtHeight(height uint64) Expiration { return Expiration{Height: height} }

// AtTime builds a timestamp-based expiration.
func AtTime(ts uint64) Expiration { return Expiration{Time: ts} }

// Never builds an expiration that can never trigger.
func Never() Expiration { return Expiration{} }

// IsExpired reports whether the expiration has passed relative to block.
func (e Expiration) IsExpired(block types.BlockInfo) bool {
	if e.Height != 0 && block.Height >= e.Height {
		return true
	}
	if e.Time != 0 && block.Time >= e.Time {
		return true
	}
	return false
}

// IsNever reports whether the expiration can never trigger.
func (e Expiration) IsNever() bool { return e.Height == 0 && e.Time == 0 }

// String renders the expiration for event attributes and queries.
func (e Expiration) String() string {
	switch {
	case e.Height != 0:
		return fmt.Sprintf("height:%d", e.Height)
	case e.Time != 0:
		return fmt.Sprintf("time:%d", e.Time)
	default:
		return "never"
	}
}

// Duration is a relative delay, in blocks or in seconds, used to derive a
// concrete Expiration from the current block. Exactly one field should be
// set; a zero Duration yields an immediate expiration at the current block.
type Duration struct {
	Height uint64
	Time   uint64
}

// After returns the expiration reached by waiting for the duration starting
// at block.
func (d Duration) After(block types.BlockInfo) Expiration {
	if d.Time != 0 {
		return AtTime(block.Time + d.Time)
	}
	return AtHeight(block.Height + d.Height)
}
