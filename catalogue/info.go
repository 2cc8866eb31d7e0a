package catalogue

import (
	"github.com/c2h5oh/datasize"

	"github.com/rob-gra/go-deviceaccess/dtype"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

// TargetKind names which of the five logical-name-map target kinds an
// Info describes (spec.md §6). Zero value Numeric is used for every
// register coming from a numeric-addressed backend.
type TargetKind uint8

const (
	// Numeric is a plain numeric-addressed register: bar/address/words
	// on the owning backend are meaningful, Target* fields are not.
	Numeric TargetKind = iota
	Register
	Range
	Channel
	IntConstant
	IntVariable
)

func (k TargetKind) String() string {
	switch k {
	case Numeric:
		return "NUMERIC"
	case Register:
		return "REGISTER"
	case Range:
		return "RANGE"
	case Channel:
		return "CHANNEL"
	case IntConstant:
		return "INT_CONSTANT"
	case IntVariable:
		return "INT_VARIABLE"
	default:
		return "UNKNOWN"
	}
}

// Info is RegisterInfo (spec.md §3): everything a backend knows about one
// register, independent of whether any accessor has been created for it
// yet.
type Info struct {
	Path Path

	NumberOfChannels int
	NumberOfSamples  int
	ValueType        dtype.DataType
	Mode             transfer.AccessMode
	Readable         bool
	Writeable        bool

	// Fixed-point parameters (spec.md §4.1); (32, 0, signed) is the
	// identity raw-passthrough converter. The zero value (width 0) is
	// rejected by fxpoint.New.
	Width          int
	FractionalBits int
	Signed         bool

	// Numeric-addressed-backend placement. Meaningful when Kind ==
	// Numeric, or when Kind == Register/Range/Channel and the target
	// resolves through a numeric-addressed backend.
	Bar           uint8
	Address       uint32
	Size          datasize.ByteSize

	// Logical-name-map target resolution (spec.md §6).
	Kind          TargetKind
	TargetPath    Path // REGISTER, RANGE, CHANNEL: the underlying register this aliases
	RangeOffset   int  // RANGE: element offset into the target
	RangeLength   int  // RANGE: element count
	ChannelIndex  int  // CHANNEL: which channel of the target
	ConstantValue int32
}
