package domain

import (
	"testing"
	"time"

	"movecrm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func leadAt(status Status) *Lead {
	l := newLead(Profile{FirstName: "Asha"}, testNow)
	l.Status = status
	return l
}

func TestSalesMayOnlyStepForward(t *testing.T) {
	all := append(append([]Status(nil), Pipeline...), StatusCancelled)

	for _, current := range Pipeline {
		next, hasNext := current.Next()
		for _, target := range all {
			if target == StatusCancelled {
				continue
			}
			err := CheckTransition(current, target, RoleSales, "")
			if hasNext && target == next {
				assert.NoError(t, err, "%s -> %s", current, target)
				continue
			}
			require.Error(t, err, "%s -> %s", current, target)
			assert.True(t, apperr.Is(err, apperr.KindPolicyViolation), "%s -> %s: %v", current, target, err)
		}
	}
}

func TestSalesRejectionNamesNextStatus(t *testing.T) {
	l := leadAt(StatusInProgress)
	sales := Actor{UserID: uuid.New(), Role: RoleSales}

	err := l.Transition(sales, StatusBooked, "", testNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(StatusContacted))
	assert.Equal(t, StatusInProgress, l.Status)
	assert.Empty(t, l.History)
}

func TestSalesCannotMoveCancelledLead(t *testing.T) {
	assert.Error(t, CheckTransition(StatusCancelled, StatusNew, RoleSales, ""))
}

func TestAdminOverrideRequiresReason(t *testing.T) {
	admin := Actor{UserID: uuid.New(), Role: RoleAdmin}

	for _, current := range Pipeline {
		next, hasNext := current.Next()
		for _, target := range Pipeline {
			if hasNext && target == next {
				continue
			}

			l := leadAt(current)
			err := l.Transition(admin, target, "  ", testNow)
			require.Error(t, err, "%s -> %s", current, target)
			assert.Equal(t, msgOverrideReason, err.Error())

			require.NoError(t, l.Transition(admin, target, "customer asked", testNow), "%s -> %s", current, target)
			last := l.History[len(l.History)-1]
			assert.Equal(t, StatusChange{Previous: current, New: target}, last.Change)
			assert.Equal(t, "customer asked", last.Reason)
		}
	}
}

func TestAdminAdjacentStepNeedsNoReason(t *testing.T) {
	l := leadAt(StatusNew)
	admin := Actor{UserID: uuid.New(), Role: RoleAdmin}

	require.NoError(t, l.Transition(admin, StatusAssigned, "", testNow))
	assert.Equal(t, StatusAssigned, l.Status)
}

func TestCancellationRequiresReason(t *testing.T) {
	roles := []Role{RoleAdmin, RoleSales}
	statuses := append(append([]Status(nil), Pipeline...), StatusCancelled)

	for _, role := range roles {
		for _, current := range statuses {
			actor := Actor{UserID: uuid.New(), Role: role}
			l := leadAt(current)

			assert.Error(t, l.Transition(actor, StatusCancelled, "", testNow), "%s/%s", role, current)
			assert.Empty(t, l.CancellationReason)
			assert.Empty(t, l.History)

			err := l.Transition(actor, StatusCancelled, "duplicate lead", testNow)
			if current.IsTerminal() {
				assert.Error(t, err, "%s/%s: terminal lead", role, current)
				continue
			}
			require.NoError(t, err, "%s/%s", role, current)
			assert.Equal(t, StatusCancelled, l.Status)
			assert.Equal(t, "duplicate lead", l.CancellationReason)
			require.NotNil(t, l.CancelledBy)
			assert.Equal(t, actor.UserID, *l.CancelledBy)
			require.NotNil(t, l.CancellationDate)
			assert.True(t, l.CancellationDate.Equal(testNow))
		}
	}
}

func TestCancellationReasonKeepsAngleBrackets(t *testing.T) {
	l := leadAt(StatusContacted)
	admin := Actor{UserID: uuid.New(), Role: RoleAdmin}

	require.NoError(t, l.Transition(admin, StatusCancelled, "<dup>", testNow))
	assert.Equal(t, "<dup>", l.CancellationReason)
	assert.Equal(t, "<dup>", l.History[0].Reason)
}

func TestScenarioAdminCancelsNewLead(t *testing.T) {
	l := leadAt(StatusNew)
	admin := Actor{UserID: uuid.New(), Role: RoleAdmin}

	err := l.Transition(admin, StatusCancelled, "", testNow)
	require.Error(t, err)
	assert.Equal(t, msgCancellationReason, err.Error())

	require.NoError(t, l.Transition(admin, StatusCancelled, "duplicate lead", testNow))
	assert.Equal(t, "duplicate lead", l.CancellationReason)
	assert.Equal(t, admin.UserID, *l.CancelledBy)
}

func TestUnknownTargetIsValidationError(t *testing.T) {
	err := CheckTransition(StatusNew, Status("ARCHIVED"), RoleAdmin, "why not")
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
}
