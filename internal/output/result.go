package output

// Result is the per-file summary printed in count mode.
type Result struct {
	Path  string
	Count uint64
}
