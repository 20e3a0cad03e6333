package tomasulo

// ReservationStation holds in-flight instructions waiting for their
// operands before they can be routed to a functional unit. It is a
// fixed-capacity ring buffer of ID-tagged entries; lookups are always
// by ROB tag, never by slot position, since entries are removed out of
// order as they dispatch.
type ReservationStation struct {
	entries  []RSEntry
	capacity int
}

// NewReservationStation returns an empty station with the given capacity.
func NewReservationStation(capacity int) *ReservationStation {
	return &ReservationStation{entries: make([]RSEntry, 0, capacity), capacity: capacity}
}

// Full reports whether the station has no free slot.
func (rs *ReservationStation) Full() bool {
	return len(rs.entries) >= rs.capacity
}

// Add inserts a new entry. Callers must check Full first.
func (rs *ReservationStation) Add(e RSEntry) {
	rs.entries = append(rs.entries, e)
}

// Snoop updates any entry waiting on tag with the now-known value,
// mirroring the common-data-bus snooping every reservation station
// entry performs each cycle a functional unit broadcasts.
func (rs *ReservationStation) Snoop(tag uint32, value int32) {
	for i := range rs.entries {
		if rs.entries[i].Qj == tag {
			rs.entries[i].Vj = value
			rs.entries[i].Qj = NoTag
		}
		if rs.entries[i].Qk == tag {
			rs.entries[i].Vk = value
			rs.entries[i].Qk = NoTag
		}
	}
}

// Find returns a copy of the live entry with the given ROB tag.
func (rs *ReservationStation) Find(tag uint32) (RSEntry, bool) {
	for i := range rs.entries {
		if rs.entries[i].ID == tag {
			return rs.entries[i], true
		}
	}
	return RSEntry{}, false
}

// Entries returns the live entries for the front-end's dispatch scan.
// The returned slice aliases internal storage and must not be retained
// past the call to Remove.
func (rs *ReservationStation) Entries() []RSEntry {
	return rs.entries
}

// Remove drops the entry with the given ROB tag, if present.
func (rs *ReservationStation) Remove(tag uint32) {
	for i := range rs.entries {
		if rs.entries[i].ID == tag {
			rs.entries = append(rs.entries[:i], rs.entries[i+1:]...)
			return
		}
	}
}

// Flush discards every entry. Unlike the ROB, the reservation station
// has no notion of committed state, so a flush always clears it
// entirely.
func (rs *ReservationStation) Flush() {
	rs.entries = rs.entries[:0]
}
