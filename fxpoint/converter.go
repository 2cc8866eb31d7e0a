// Package fxpoint implements the fixed-point raw/cooked conversion layer
// (spec.md §4.1): a pure, stateless-per-instance translator between
// 32-bit raw device words and the closed set of user-visible
// numeric/string types.
//
// Grounded on asdu/codec.go's AppendNormalize/DecodeNormalize and
// AppendScaled/DecodeScaled (little-endian, fixed-scale raw<->cooked
// transcoding) generalised from a hardcoded 16-bit scale to an arbitrary
// (width, fractionalBits, signed) triple.
package fxpoint

import (
	"math"
	"math/big"
	"regexp"

	"github.com/rob-gra/go-deviceaccess/deverr"
	"github.com/rob-gra/go-deviceaccess/dtype"
)

// Converter translates between a 32-bit raw device word and a cooked
// user-visible value, per a fixed (width, fractionalBits, signed) layout.
// Immutable after construction; safe for concurrent use by multiple
// goroutines (it holds no mutable state).
type Converter struct {
	width          int
	fractionalBits int
	signed         bool
	mask           int64
	signBit        int64
}

// New constructs a Converter. width must be in [1, 32]; fractionalBits
// may be any int (positive scales down, negative scales up).
func New(width, fractionalBits int, signed bool) (*Converter, error) {
	if width < 1 || width > 32 {
		return nil, deverr.New(deverr.WrongParameter, "fixed-point width %d out of range [1,32]", width)
	}
	return &Converter{
		width:          width,
		fractionalBits: fractionalBits,
		signed:         signed,
		mask:           (int64(1) << uint(width)) - 1,
		signBit:        int64(1) << uint(width-1),
	}, nil
}

// Width returns the configured bit width.
func (c *Converter) Width() int { return c.width }

// FractionalBits returns the configured fractional-bit count.
func (c *Converter) FractionalBits() int { return c.fractionalBits }

// Signed reports whether raw values are sign-extended.
func (c *Converter) Signed() bool { return c.signed }

// signExtend extracts the low `width` bits of raw and, if the converter is
// signed, sign-extends them into an int64.
func (c *Converter) signExtend(raw int32) int64 {
	v := int64(uint32(raw)) & c.mask
	if c.signed && v&c.signBit != 0 {
		v -= int64(1) << uint(c.width)
	}
	return v
}

// truncateToRaw keeps the low `width` bits of v (two's complement) and
// returns them as an int32 raw word, sign-extended from width bits when
// the converter is signed, so a negative value comes back as the same
// negative raw word ToCooked accepts.
func (c *Converter) truncateToRaw(v int64) int32 {
	bits := uint64(v) & uint64(c.mask)
	return int32(c.signExtend(int32(uint32(bits))))
}

func pow2(n int) *big.Int { return new(big.Int).Lsh(big.NewInt(1), uint(n)) }

// rawToRat returns the exact rational value raw/2^fractionalBits (or
// raw*2^-fractionalBits when fractionalBits is negative).
func (c *Converter) rawToRat(extended int64) *big.Rat {
	if c.fractionalBits >= 0 {
		return new(big.Rat).SetFrac(big.NewInt(extended), pow2(c.fractionalBits))
	}
	num := new(big.Int).Mul(big.NewInt(extended), pow2(-c.fractionalBits))
	return new(big.Rat).SetFrac(num, big.NewInt(1))
}

// valueToRawRat is the inverse scale: given an exact cooked value, returns
// value*2^fractionalBits as an exact rational (pre-rounding).
func (c *Converter) valueToRawRat(value *big.Rat) *big.Rat {
	if c.fractionalBits >= 0 {
		return new(big.Rat).Mul(value, new(big.Rat).SetFrac(pow2(c.fractionalBits), big.NewInt(1)))
	}
	return new(big.Rat).Quo(value, new(big.Rat).SetFrac(pow2(-c.fractionalBits), big.NewInt(1)))
}

// roundHalfAwayFromZero rounds an exact rational to the nearest integer,
// breaking ties away from zero.
func roundHalfAwayFromZero(r *big.Rat) *big.Int {
	num := new(big.Int).Set(r.Num())
	den := new(big.Int).Set(r.Denom())
	neg := num.Sign() < 0
	if neg {
		num.Neg(num)
	}
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	twiceRem := new(big.Int).Lsh(rem, 1)
	if twiceRem.Cmp(den) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if neg {
		q.Neg(q)
	}
	return q
}

// ToCooked converts a raw device word to a cooked value of type T.
// Integer destination types truncate toward zero and saturate at the
// representable range of T; float32/float64 are exact within IEEE-754
// rounding; string renders an exact, idempotent decimal.
func ToCooked[T dtype.UserType](c *Converter, raw int32) (T, error) {
	var zero T
	extended := c.signExtend(raw)

	if dtype.Of[T]() == dtype.String {
		digits := c.fractionalBits
		if digits < 0 {
			digits = 0
		}
		s := c.rawToRat(extended).FloatString(digits)
		return any(s).(T), nil
	}

	f := ratToFloat64(c.rawToRat(extended))
	return clampTrunc[T](f), nil
}

func ratToFloat64(r *big.Rat) float64 {
	f, _ := r.Float64()
	return f
}

var decimalRe = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// ToRaw converts a cooked value of type T to a raw device word. Fails
// with WRONG_PARAMETER if T is string and the value does not parse as a
// plain decimal number.
func ToRaw[T dtype.UserType](c *Converter, cooked T) (int32, error) {
	var value *big.Rat

	switch v := any(cooked).(type) {
	case string:
		if !decimalRe.MatchString(v) {
			return 0, deverr.New(deverr.WrongParameter, "cannot parse %q as a decimal number", v)
		}
		value = new(big.Rat)
		if _, ok := value.SetString(v); !ok {
			return 0, deverr.New(deverr.WrongParameter, "cannot parse %q as a decimal number", v)
		}
	case float32:
		value = new(big.Rat).SetFloat64(float64(v))
		if value == nil {
			return 0, deverr.New(deverr.WrongParameter, "value %v is not finite", v)
		}
	case float64:
		value = new(big.Rat).SetFloat64(v)
		if value == nil {
			return 0, deverr.New(deverr.WrongParameter, "value %v is not finite", v)
		}
	default:
		value = new(big.Rat).SetInt64(intValueOf(cooked))
	}

	raw := roundHalfAwayFromZero(c.valueToRawRat(value))
	return c.truncateToRaw(raw.Int64()), nil
}

// intValueOf extracts the int64 value from any of the fixed-width integer
// UserType variants. T is guaranteed by the caller's switch to be one of
// them (the float32/float64/string cases are handled before this is
// reached).
func intValueOf[T dtype.UserType](v T) int64 {
	switch x := any(v).(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	default:
		return 0
	}
}

func clampF(f, lo, hi float64) float64 {
	f = math.Trunc(f)
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// clampTrunc truncates f toward zero and saturates it into the range of
// T, returning T itself for the float/identity cases.
func clampTrunc[T dtype.UserType](f float64) T {
	var zero T
	switch any(zero).(type) {
	case int8:
		return any(int8(clampF(f, math.MinInt8, math.MaxInt8))).(T)
	case int16:
		return any(int16(clampF(f, math.MinInt16, math.MaxInt16))).(T)
	case int32:
		return any(int32(clampF(f, math.MinInt32, math.MaxInt32))).(T)
	case int64:
		return any(int64(clampF(f, math.MinInt64, math.MaxInt64))).(T)
	case uint8:
		return any(uint8(clampF(f, 0, math.MaxUint8))).(T)
	case uint16:
		return any(uint16(clampF(f, 0, math.MaxUint16))).(T)
	case uint32:
		return any(uint32(clampF(f, 0, math.MaxUint32))).(T)
	case uint64:
		return any(uint64(clampF(f, 0, math.MaxUint64))).(T)
	case float32:
		return any(float32(f)).(T)
	case float64:
		return any(f).(T)
	default:
		return zero
	}
}

// ToCookedSlice is the vectorised form of ToCooked.
func ToCookedSlice[T dtype.UserType](c *Converter, raws []int32, dst []T) error {
	if len(raws) != len(dst) {
		return deverr.New(deverr.WrongParameter, "length mismatch: %d raws, %d dst", len(raws), len(dst))
	}
	for i, raw := range raws {
		v, err := ToCooked[T](c, raw)
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// ToRawSlice is the vectorised form of ToRaw.
func ToRawSlice[T dtype.UserType](c *Converter, src []T, dst []int32) error {
	if len(src) != len(dst) {
		return deverr.New(deverr.WrongParameter, "length mismatch: %d src, %d dst", len(src), len(dst))
	}
	for i, v := range src {
		raw, err := ToRaw[T](c, v)
		if err != nil {
			return err
		}
		dst[i] = raw
	}
	return nil
}
