package player

import "github.com/OpenTraceLab/csvfplay/pkg/tap"

// edge is the line state latched on one rising TCK edge.
type edge struct {
	tms, tdi bool
}

// mockPins records every pin call and the TMS/TDI levels seen on each rising
// TCK edge. TDO answers come from tdo, indexed by sample number.
type mockPins struct {
	tck, tms, tdi bool

	calls   []string
	edges   []edge
	samples int
	tdo     func(sample int) bool
}

func (m *mockPins) SetTCK(high bool) {
	if high && !m.tck {
		m.edges = append(m.edges, edge{tms: m.tms, tdi: m.tdi})
	}
	m.tck = high
	m.calls = append(m.calls, "TCK")
}

func (m *mockPins) SetTMS(high bool) {
	m.tms = high
	m.calls = append(m.calls, "TMS")
}

func (m *mockPins) SetTDI(high bool) {
	m.tdi = high
	m.calls = append(m.calls, "TDI")
}

func (m *mockPins) GetTDO() bool {
	n := m.samples
	m.samples++
	m.calls = append(m.calls, "TDO")
	if m.tdo == nil {
		return false
	}
	return m.tdo(n)
}

func (m *mockPins) count(name string) int {
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

// clockingPins adds the Clocker fast path.
type clockingPins struct {
	mockPins
	bulk []uint32
}

func (c *clockingPins) Clocks(n uint32) {
	c.bulk = append(c.bulk, n)
}

// bitOf returns bit i of v, least-significant byte first.
func bitOf(v []byte, i int) bool {
	return v[i/8]&(1<<(i%8)) != 0
}

// tmsOf extracts the TMS levels of a run of edges.
func tmsOf(edges []edge) []bool {
	out := make([]bool, len(edges))
	for i, e := range edges {
		out[i] = e.tms
	}
	return out
}

// walkTAP replays edges through the TAP state machine. It returns the final
// state and how many edges were clocked while in each state.
func walkTAP(edges []edge) (tap.State, map[tap.State]int) {
	state := tap.StateTestLogicReset
	in := make(map[tap.State]int)
	for _, e := range edges {
		in[state]++
		state = tap.NextState(state, e.tms)
	}
	return state, in
}
