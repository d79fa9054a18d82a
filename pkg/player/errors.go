package player

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/csvfplay/pkg/csvf"
)

// Error kinds a playback can end with. Use errors.Is to test for them, or
// Classify to map an error onto a Status.
var (
	ErrUsage        = errors.New("player: usage error")
	ErrAllocation   = errors.New("player: allocation error")
	ErrFile         = errors.New("player: file error")
	ErrBadCommand   = errors.New("player: unsupported command")
	ErrMismatch     = errors.New("player: TDO mismatch")
	ErrShiftTooLong = errors.New("player: shift length exceeds buffer capacity")
	ErrTruncated    = csvf.ErrTruncated
	ErrNoDevice     = errors.New("player: no device responding on TDO")
)

// BadCommandError reports an opcode the player does not execute.
type BadCommandError struct {
	Opcode csvf.Opcode
	Offset int
}

func (e *BadCommandError) Error() string {
	return fmt.Sprintf("Unsupported command 0x%02X at offset %d", uint8(e.Opcode), e.Offset)
}

func (e *BadCommandError) Is(target error) bool {
	return target == ErrBadCommand
}

// MismatchError reports an XSDRTDO that never matched within MaxAttempts.
// Got holds the sample from the final attempt.
type MismatchError struct {
	Got      []byte
	Mask     []byte
	Expected []byte
	Attempts int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("XSDRTDO failed:\n  Got: %s\n  Mask: %s\n  Expecting: %s",
		csvf.HexString(e.Got), csvf.HexString(e.Mask), csvf.HexString(e.Expected))
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

// Status is the single classification a caller receives for a playback.
type Status int

const (
	StatusSuccess Status = iota
	StatusUsage
	StatusMismatch
	StatusBadCommand
	StatusAllocation
	StatusFile
	StatusTruncated
	StatusShiftTooLong
	StatusNoDevice
	StatusInternal
)

var statusNames = map[Status]string{
	StatusSuccess:      "success",
	StatusUsage:        "usage error",
	StatusMismatch:     "mismatch",
	StatusBadCommand:   "bad command",
	StatusAllocation:   "allocation error",
	StatusFile:         "file error",
	StatusTruncated:    "truncated program",
	StatusShiftTooLong: "shift too long",
	StatusNoDevice:     "no device",
	StatusInternal:     "internal error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Classify maps err onto a Status. A nil error is StatusSuccess.
func Classify(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrMismatch):
		return StatusMismatch
	case errors.Is(err, ErrBadCommand):
		return StatusBadCommand
	case errors.Is(err, ErrShiftTooLong):
		return StatusShiftTooLong
	case errors.Is(err, ErrTruncated):
		return StatusTruncated
	case errors.Is(err, ErrAllocation):
		return StatusAllocation
	case errors.Is(err, ErrFile):
		return StatusFile
	case errors.Is(err, ErrNoDevice):
		return StatusNoDevice
	case errors.Is(err, ErrUsage):
		return StatusUsage
	}
	return StatusInternal
}
