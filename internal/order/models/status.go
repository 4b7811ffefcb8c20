package models

// StatusKind enumerates the lifecycle states this system understands. The
// registry owns the full set of raw strings; anything we do not recognize is
// carried as KindUnknown without modification so new upstream states neither
// raise nor transition.
type StatusKind int

const (
	KindCreated StatusKind = iota
	KindInProgress
	KindCompleted
	KindUnknown
)

// Raw registry status strings. These cross the process boundary (registry
// responses, database rows, notification templates) and must match the
// upstream vocabulary exactly.
const (
	rawCreated    = "Заявка только что создана"
	rawInProgress = "В работе"
	rawCompleted  = "Завершен"
)

// TrackingPending is the placeholder tracking identifier stored until the
// registry assigns a real one.
const TrackingPending = "Номер заявке не присвоен, заявка ждет отправки в Росреестр"

// Status is a closed tagged variant over the registry's open-ended status
// strings. Known states compare by kind; unknown states preserve and compare
// by their raw value.
type Status struct {
	kind StatusKind
	raw  string
}

var (
	StatusCreated    = Status{kind: KindCreated, raw: rawCreated}
	StatusInProgress = Status{kind: KindInProgress, raw: rawInProgress}
	StatusCompleted  = Status{kind: KindCompleted, raw: rawCompleted}
)

// StatusFromRaw maps a raw registry string into the tagged variant.
func StatusFromRaw(raw string) Status {
	switch raw {
	case rawCreated:
		return StatusCreated
	case rawInProgress:
		return StatusInProgress
	case rawCompleted:
		return StatusCompleted
	default:
		return Status{kind: KindUnknown, raw: raw}
	}
}

// Kind returns the variant tag.
func (s Status) Kind() StatusKind { return s.kind }

// Raw returns the registry's string form, suitable for persistence and
// display. Unknown statuses return their original value untouched.
func (s Status) Raw() string { return s.raw }

// Terminal reports whether the status is the completed terminal state.
func (s Status) Terminal() bool { return s.kind == KindCompleted }

// Equal compares two statuses: known kinds by tag, unknown by raw value.
func (s Status) Equal(other Status) bool {
	if s.kind != other.kind {
		return false
	}
	if s.kind == KindUnknown {
		return s.raw == other.raw
	}
	return true
}

func (s Status) String() string { return s.raw }
