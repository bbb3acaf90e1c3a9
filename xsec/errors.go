package xsec

import "errors"

// ErrUnknownProcess is returned when a catalogue lookup or name parse does
// not match any supported process.
var ErrUnknownProcess = errors.New("xsec: unknown process")
