package tap

import "fmt"

// MaxPatternLength is the widest TMS pattern a single Pattern can hold.
const MaxPatternLength = 32

// Pattern is a literal TMS sequence clocked least-significant bit first.
type Pattern struct {
	Bits  uint32
	Count uint8
}

// Fixed transitions used by the CSVF player. The named end states assume the
// TAP starts where the player always leaves it.
var (
	// ResetToIdle forces Test-Logic-Reset from any state, then settles in
	// Run-Test/Idle.
	ResetToIdle = Pattern{Bits: 0x1F, Count: 6}

	// IdleToShiftIR goes Run-Test/Idle -> Shift-IR.
	IdleToShiftIR = Pattern{Bits: 0x03, Count: 4}

	// IdleToShiftDR goes Run-Test/Idle -> Shift-DR.
	IdleToShiftDR = Pattern{Bits: 0x01, Count: 3}

	// ExitToIdle goes Exit1-xR -> Update-xR -> Run-Test/Idle.
	ExitToIdle = Pattern{Bits: 0x01, Count: 2}

	// ExitToIdleViaPause goes Exit1-DR -> Pause-DR -> Exit2-DR -> Shift-DR ->
	// Exit1-DR -> Update-DR -> Run-Test/Idle. Used after compared DR scans.
	ExitToIdleViaPause = Pattern{Bits: 0x1A, Count: 6}
)

// TMS expands the pattern into one level per clock.
func (p Pattern) TMS() []bool {
	n := int(p.Count)
	if n > MaxPatternLength {
		n = MaxPatternLength
	}
	bits := make([]bool, n)
	v := p.Bits
	for i := range bits {
		bits[i] = v&1 != 0
		v >>= 1
	}
	return bits
}

// Walk returns every state visited when the pattern is clocked from the given
// state, including the start state.
func (p Pattern) Walk(from State) []State {
	states := []State{from}
	cur := from
	for _, bit := range p.TMS() {
		cur = NextState(cur, bit)
		states = append(states, cur)
	}
	return states
}

func (p Pattern) String() string {
	return fmt.Sprintf("TMS(0x%X/%d)", p.Bits, p.Count)
}
