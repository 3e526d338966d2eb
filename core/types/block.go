package types

// BlockInfo is the host-provided view of the block an invocation executes in.
// Time is seconds since the unix epoch.
type BlockInfo struct {
	Height uint64
	Time   uint64
}
