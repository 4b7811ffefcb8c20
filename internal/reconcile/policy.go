package reconcile

import "github.com/notorious-utopia/egrn/internal/order/models"

// Action is the outcome of comparing a stored order status with the
// registry's current report.
type Action int

const (
	// ActionNone leaves the stored order untouched.
	ActionNone Action = iota

	// ActionUpdate replaces the stored status with the upstream one.
	ActionUpdate

	// ActionComplete replaces the stored status and, after the write,
	// notifies the order's owner exactly once.
	ActionComplete
)

func (a Action) String() string {
	switch a {
	case ActionUpdate:
		return "update"
	case ActionComplete:
		return "complete"
	default:
		return "none"
	}
}

// Decide maps a (local, upstream) status pair to the action a pass must
// take. Stored statuses only ever move forward: a terminal local status
// is never overwritten, and upstream values the service does not
// recognize never cause a write.
func Decide(local, upstream models.Status) Action {
	if local.Terminal() {
		return ActionNone
	}
	if upstream.Equal(local) {
		return ActionNone
	}
	switch upstream.Kind() {
	case models.KindInProgress:
		return ActionUpdate
	case models.KindCompleted:
		return ActionComplete
	default:
		// KindCreated means the registry has not started yet and
		// KindUnknown means a status this build does not know.
		return ActionNone
	}
}
