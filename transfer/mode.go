package transfer

// AccessMode is a set of access-mode flags (spec.md §3): currently `raw`
// (disables fixed-point conversion) and `wait_for_new_data` (enables
// blocking/async semantics).
type AccessMode uint8

const (
	// ModeRaw disables fixed-point conversion; the cooked buffer holds
	// the device's raw int32 words reinterpreted as the accessor's type.
	ModeRaw AccessMode = 1 << iota
	// ModeWaitForNewData enables blocking/async read semantics
	// (ReadNonBlocking/ReadLatest distinguish "no update yet" from
	// "updated"; ReadAsync/readAny become meaningful).
	ModeWaitForNewData
)

// Has reports whether flag is set in m.
func (m AccessMode) Has(flag AccessMode) bool { return m&flag != 0 }

// With returns m with flag set.
func (m AccessMode) With(flag AccessMode) AccessMode { return m | flag }

// Without returns m with flag cleared.
func (m AccessMode) Without(flag AccessMode) AccessMode { return m &^ flag }
