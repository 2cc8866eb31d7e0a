package transfer

import "sync/atomic"

var idCounter uint64

// ID is an opaque, globally-unique, equality-and-hash-comparable
// TransferElement identifier, minted once per concrete element at
// construction (spec.md §3). Decorator wrappers reuse the id of their
// target so that two accessors to the same register obtained from the
// same call test as equal. The zero value is "uninitialised": it
// compares equal to every other uninitialised ID and unequal to any
// minted one.
//
// Grounded on asdu/identifier.go's CommonAddr/InfoObjAddr idiom: a small
// value type that is opaque to callers but directly comparable and
// usable as a map key.
type ID struct {
	value uint64
}

// NewID mints a fresh, globally-unique ID.
func NewID() ID {
	return ID{value: atomic.AddUint64(&idCounter, 1)}
}

// IsValid reports whether the ID was minted by NewID (as opposed to being
// the zero value).
func (id ID) IsValid() bool { return id.value != 0 }

// String renders the ID for diagnostics. Not part of its identity.
func (id ID) String() string {
	if !id.IsValid() {
		return "id(uninitialised)"
	}
	return "id(" + itoa(id.value) + ")"
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
