package lneto

import "errors"

// ValidateFlags controls which optional checks [Validator] performs.
type ValidateFlags uint8

const (
	// ValidateEvilBit enables rejection of packets with the IPv4 evil bit set (RFC 3514).
	ValidateEvilBit ValidateFlags = 1 << iota
)

// Validator accumulates validation errors encountered while checking a frame's
// size and field consistency. Its zero value stops at the first error found;
// set AllowMultipleErrors to accumulate every error instead.
type Validator struct {
	AllowMultipleErrors bool
	flags               ValidateFlags
	accum               []error
}

// SetFlags sets the validation flags used by frame ValidateExceptCRC methods.
func (v *Validator) SetFlags(f ValidateFlags) { v.flags = f }

// Flags returns the currently set validation flags.
func (v *Validator) Flags() ValidateFlags { return v.flags }

// AddError registers a validation error. If AllowMultipleErrors is false
// only the first error added is kept.
func (v *Validator) AddError(err error) {
	if len(v.accum) != 0 && !v.AllowMultipleErrors {
		return
	}
	v.accum = append(v.accum, err)
}

// ResetErr clears all accumulated errors, readying the Validator for reuse.
func (v *Validator) ResetErr() { v.accum = v.accum[:0] }

// Err returns the accumulated validation error, or nil if none were added.
func (v *Validator) Err() error {
	switch len(v.accum) {
	case 0:
		return nil
	case 1:
		return v.accum[0]
	default:
		return errors.Join(v.accum...)
	}
}
