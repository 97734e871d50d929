package reservation

type Status string

const (
	StatusHeld      Status = "held"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusHeld, StatusConfirmed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave s. Confirmed is
// not terminal: it can still be cancelled.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

// Blocks reports whether a reservation in this status occupies its slot
// for availability and overlap checks.
func (s Status) Blocks() bool {
	return s == StatusHeld || s == StatusConfirmed
}
