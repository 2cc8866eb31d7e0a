package accessor

import "github.com/rob-gra/go-deviceaccess/dtype"

// Scalar is a convenience view over a single-channel, single-sample
// Cooked accessor (original_source ScalarRegisterAccessor.h).
type Scalar[T dtype.UserType] struct {
	*Cooked[T]
}

// NewScalar wraps an existing 1x1 cooked accessor as a Scalar view.
func NewScalar[T dtype.UserType](a *Cooked[T]) Scalar[T] { return Scalar[T]{a} }

// Get returns the current value.
func (s Scalar[T]) Get() T { return s.AccessData(0, 0) }

// Set stores v for the next write.
func (s Scalar[T]) Set(v T) { s.SetAccessData(0, 0, v) }

// OneD is a convenience view over a single-channel, multi-sample Cooked
// accessor (original_source OneDRegisterAccessor.h).
type OneD[T dtype.UserType] struct {
	*Cooked[T]
}

// NewOneD wraps an existing single-channel cooked accessor as a OneD view.
func NewOneD[T dtype.UserType](a *Cooked[T]) OneD[T] { return OneD[T]{a} }

// Get returns a live view of the channel's samples.
func (o OneD[T]) Get() []T { return o.AccessChannel(0) }

// Set overwrites the channel's samples up to min(len(values), NumSamples()).
func (o OneD[T]) Set(values []T) {
	n := copy(o.AccessChannel(0), values)
	_ = n
}
