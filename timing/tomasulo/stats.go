package tomasulo

// Statistics accumulates cycle-by-cycle counters for a run, used for
// reporting CPI and flush overhead once the engine halts.
type Statistics struct {
	Cycles    uint64
	Committed uint64
	Flushes   uint64
}

// CPI returns cycles committed per retired instruction. Returns 0 if
// nothing has committed yet, rather than dividing by zero.
func (s Statistics) CPI() float64 {
	if s.Committed == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Committed)
}
