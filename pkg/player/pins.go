package player

// Pins is the pin-level capability set a JTAG port exposes to the player.
// Each call must take effect on (or sample) the physical line immediately.
// Implementations are not required to be safe for concurrent use; callers
// must not run two playbacks against the same Pins at once.
type Pins interface {
	SetTCK(high bool)
	SetTMS(high bool)
	SetTDI(high bool)
	GetTDO() bool
}

// Clocker is an optional fast path for drivers that can issue a run of TCK
// pulses with TMS and TDI held in a single transaction.
type Clocker interface {
	Clocks(n uint32)
}
