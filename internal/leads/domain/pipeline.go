package domain

import (
	"fmt"
	"strings"
	"time"

	"movecrm_backend/platform/apperr"
)

const (
	msgCancellationReason = "Cancellation reason required"
	msgOverrideReason     = "Override requires reason"
)

// CheckTransition decides whether role may move a lead from current to target.
// It is pure: nothing is mutated and the returned error carries the message
// shown to the caller.
func CheckTransition(current, target Status, role Role, reason string) error {
	if !target.IsValid() {
		return apperr.Validation(fmt.Sprintf("unknown status %q", target))
	}
	if !role.IsValid() {
		return apperr.Forbidden("unknown role")
	}

	hasReason := strings.TrimSpace(reason) != ""

	if target == StatusCancelled {
		if !hasReason {
			return apperr.PolicyViolation(msgCancellationReason)
		}
		if current.IsTerminal() {
			return apperr.PolicyViolation(fmt.Sprintf("Lead is already %s and cannot be cancelled", current))
		}
		return nil
	}

	switch role {
	case RoleSales:
		return salesRule(current, target)
	default:
		return adminRule(current, target, hasReason)
	}
}

// salesRule allows exactly one forward step.
func salesRule(current, target Status) error {
	next, ok := current.Next()
	if !ok {
		return apperr.PolicyViolation(fmt.Sprintf("Strict flow: no further status after %s", current))
	}
	if target != next {
		return apperr.PolicyViolation(fmt.Sprintf("Strict flow: Must move to %s", next))
	}
	return nil
}

// adminRule allows the forward step freely and anything else as an override.
func adminRule(current, target Status, hasReason bool) error {
	if next, ok := current.Next(); ok && target == next {
		return nil
	}
	if !hasReason {
		return apperr.PolicyViolation(msgOverrideReason)
	}
	return nil
}

// Transition applies a user-requested status change after CheckTransition
// accepts it. Cancellation metadata is set in the same step.
func (l *Lead) Transition(actor Actor, target Status, reason string, at time.Time) error {
	if err := CheckTransition(l.Status, target, actor.Role, reason); err != nil {
		return err
	}

	if target == StatusCancelled {
		cancelledAt := at
		l.CancellationReason = reason
		l.CancelledBy = actor.userRef()
		l.CancellationDate = &cancelledAt
	}

	l.forceStatus(actor, target, reason, at)
	return nil
}

// forceStatus sets the status directly and records it. Callers outside
// Transition use it for implicit moves that skip the role rules.
func (l *Lead) forceStatus(actor Actor, target Status, reason string, at time.Time) {
	prev := l.Status
	l.Status = target
	l.record(HistoryEntry{
		Action:    ActionStatusUpdated,
		UserID:    actor.userRef(),
		Reason:    reason,
		Timestamp: at,
		Change:    StatusChange{Previous: prev, New: target},
	})
}
