// Package dtype defines the closed set of user-visible value types the
// transfer subsystem exchanges, replacing the template-based type map of
// the original C++ library with a runtime tag plus per-variant
// monomorphisations of the accessor (spec.md §9, "Dynamic dispatch on
// user type").
package dtype

import "fmt"

// DataType is a runtime descriptor for one of the supported user types.
// It is the introspection counterpart of the Go generic type parameter T
// an accessor is instantiated with.
type DataType uint8

// The closed set of supported user types.
const (
	Int8 DataType = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	String
	Void // returned by Of for a T matching none of the cases above (e.g. a named type over int8)
)

func (d DataType) String() string {
	switch d {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Void:
		return "void"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(d))
	}
}

// IsInteger reports whether the type is one of the signed/unsigned
// integer variants.
func (d DataType) IsInteger() bool {
	switch d {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the type is one of the floating point variants.
func (d DataType) IsFloat() bool {
	return d == Float32 || d == Float64
}

// UserType is implemented by every concrete value the accessor layer is
// allowed to carry: the closed numeric set plus string. It exists purely
// so generic accessor code can constrain its type parameter without
// resorting to `any`.
type UserType interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~string
}

// Of returns the DataType tag for a Go type parameter T. Because Go
// generics have no switch-on-type-parameter, this dispatches on a zero
// value via a type switch over `any`; it is evaluated once per accessor
// construction, not per transfer.
func Of[T UserType]() DataType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	case string:
		return String
	default:
		return Void
	}
}
