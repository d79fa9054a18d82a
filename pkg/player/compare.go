package player

import (
	"bytes"

	"github.com/golang/glog"

	"github.com/OpenTraceLab/csvfplay/pkg/csvf"
	"github.com/OpenTraceLab/csvfplay/pkg/tap"
)

// shiftCompare scans the DR with s.tdi until the masked response equals the
// masked expectation, at most MaxAttempts times. This is how programs poll a
// device status register until it reports ready. A zero-length compare has
// nothing to scan and always matches.
func (s *session) shiftCompare() error {
	if s.shiftLength == 0 {
		s.runTest()
		return nil
	}
	n := s.drBytes()
	got, mask, expected := s.tdo[:n], s.mask[:n], s.expected[:n]

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		s.port.clockFSM(tap.IdleToShiftDR)
		s.port.shiftInOut(s.shiftLength, s.tdi, got)
		s.port.clockFSM(tap.ExitToIdleViaPause)
		s.runTest()

		if tdoMatches(got, mask, expected) {
			if attempt > 1 {
				glog.V(1).Infof("XSDRTDO matched on attempt %d", attempt)
			}
			return nil
		}
		glog.V(2).Infof("XSDRTDO attempt %d: got %s, want %s under %s",
			attempt, csvf.HexString(got), csvf.HexString(expected), csvf.HexString(mask))
	}

	return &MismatchError{
		Got:      bytes.Clone(got),
		Mask:     bytes.Clone(mask),
		Expected: bytes.Clone(expected),
		Attempts: MaxAttempts,
	}
}

// tdoMatches compares got with expected on the bits selected by mask.
func tdoMatches(got, mask, expected []byte) bool {
	for i := range got {
		if got[i]&mask[i] != expected[i]&mask[i] {
			return false
		}
	}
	return true
}
