package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManualLeadStartsWithManualEntry(t *testing.T) {
	actor := Actor{UserID: uuid.New(), Role: RoleSales}
	l := NewManualLead(Profile{FirstName: "Ravi"}, actor, testNow)

	assert.Equal(t, StatusNew, l.Status)
	assert.Empty(t, l.Items)
	assert.Empty(t, l.Media)
	require.Len(t, l.History, 1)
	assert.Equal(t, ActionManualEntry, l.History[0].Action)
	assert.Equal(t, ManualEntrySource, l.History[0].Change.(ManualEntry).Source)
}

func TestNewAssessmentLeadTagsItemsAsAI(t *testing.T) {
	est := Estimate{
		Items:      []Item{{Name: "Sofa", Quantity: 1, Category: CategoryFurniture, Source: SourceManual}},
		Price:      650,
		Volume:     "40 cu ft",
		Confidence: 0.94,
	}
	l := NewAssessmentLead(Profile{}, est, []Media{{FilePath: "leads/a.jpg", ContentType: "image/jpeg"}}, testNow)

	assert.Equal(t, SourceAI, l.Items[0].Source)
	assert.Equal(t, 650.0, l.AIEstimatedPrice)
	assert.Equal(t, "40 cu ft", l.AIEstimatedVolume)
	assert.Equal(t, 0.94, l.AIConfidenceScore)
	assert.True(t, l.Media[0].UploadedAt.Equal(testNow), "media upload time defaults to creation time")

	created := l.History[0]
	assert.Equal(t, ActionLeadCreated, created.Action)
	assert.Nil(t, created.UserID)
}

func TestAssignAndUnassignForceStatus(t *testing.T) {
	admin := Actor{UserID: uuid.New(), Role: RoleAdmin}
	sales := uuid.New()
	l := leadAt(StatusNew)

	l.Assign(admin, &sales, testNow)
	assert.Equal(t, StatusAssigned, l.Status)
	require.NotNil(t, l.AssignedTo)
	assert.Equal(t, sales, *l.AssignedTo)

	a := l.History[0].Change.(Assignment)
	assert.Nil(t, a.Previous.AssignedTo)
	assert.Equal(t, StatusNew, a.Previous.Status)
	require.NotNil(t, a.New.AssignedTo)
	assert.Equal(t, sales, *a.New.AssignedTo)
	assert.Equal(t, StatusAssigned, a.New.Status)

	l.Assign(admin, nil, testNow)
	assert.Equal(t, StatusNew, l.Status)
	assert.Nil(t, l.AssignedTo)
	assert.Equal(t, ActionLeadUnassigned, l.History[1].Action)

	un := l.History[1].Change.(Assignment)
	require.NotNil(t, un.Previous.AssignedTo)
	assert.Equal(t, sales, *un.Previous.AssignedTo)
	assert.Equal(t, StatusAssigned, un.Previous.Status)
}

func TestReplaceInventoryAutoTransition(t *testing.T) {
	actor := Actor{UserID: uuid.New(), Role: RoleSales}
	items := []Item{{Name: "Bed", Quantity: 2, Category: CategoryFurniture}}

	l := leadAt(StatusAssigned)
	assert.Equal(t, 2, l.ReplaceInventory(actor, items, testNow))
	assert.Equal(t, StatusInProgress, l.Status)
	assert.Equal(t, ActionStatusUpdated, l.History[0].Action)
	assert.Equal(t, ReasonInventoryReview, l.History[0].Reason)
	assert.Equal(t, ActionInventoryUpdated, l.History[1].Action)
	assert.Equal(t, SourceManual, l.Items[0].Source, "missing source defaults to MANUAL")

	for _, s := range []Status{StatusNew, StatusInProgress, StatusContacted, StatusCancelled} {
		other := leadAt(s)
		assert.Equal(t, 1, other.ReplaceInventory(actor, items, testNow), s)
		assert.Equal(t, s, other.Status)
	}
}

func TestFinalizePriceConfirmsEstimate(t *testing.T) {
	l := leadAt(StatusProposalSent)
	l.FinalizePrice(Actor{UserID: uuid.New(), Role: RoleAdmin}, 1800, "extra packing", testNow)

	require.NotNil(t, l.FinalPrice)
	assert.Equal(t, 1800.0, *l.FinalPrice)
	assert.True(t, l.EstimationConfirmed)
	assert.Equal(t, "extra packing", l.PriceAdjustmentReason)
}

func TestFollowUpLifecycle(t *testing.T) {
	actor := Actor{UserID: uuid.New(), Role: RoleSales}
	l := leadAt(StatusContacted)
	at := testNow.Add(48 * time.Hour)

	fu := l.ScheduleFollowUp(actor, at, "call about packing", testNow)
	assert.Equal(t, FollowUpPending, fu.Status)
	assert.Len(t, l.FollowUps, 1)

	assert.False(t, l.CompleteFollowUp(actor, uuid.New(), testNow), "unknown follow-up id")
	assert.Len(t, l.History, 1, "failed completion appends nothing")

	require.True(t, l.CompleteFollowUp(actor, fu.ID, testNow))
	got, _ := l.FollowUp(fu.ID)
	assert.Equal(t, FollowUpCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, "Completed follow-up: call about packing", l.History[1].Reason)
}

func TestHistoryEntryJSONShape(t *testing.T) {
	l := leadAt(StatusNew)
	l.forceStatus(Actor{UserID: uuid.New(), Role: RoleAdmin}, StatusAssigned, "", testNow)

	raw, err := json.Marshal(l.History[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, string(ActionStatusUpdated), decoded["action"])
	prev, ok := decoded["previousValues"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(StatusNew), prev["status"])
}

func TestDecodeChangeRejectsUnknownAction(t *testing.T) {
	_, err := DecodeChange(Action("LEAD_DELETED"), []byte(`{}`))
	assert.Error(t, err)

	c, err := DecodeChange(ActionStatusUpdated, []byte(`{"previous":"NEW","new":"ASSIGNED"}`))
	require.NoError(t, err)
	assert.Equal(t, StatusChange{Previous: StatusNew, New: StatusAssigned}, c)
}

// Stored history rows hold json.Marshal(entry.Change) and are read back with
// DecodeChange; every payload type must survive that trip unchanged.
func TestChangePayloadsSurviveStorage(t *testing.T) {
	sales, other := uuid.New(), uuid.New()
	followUp := uuid.New()
	profile := Profile{
		FirstName:          "Asha",
		LastName:           "Rao",
		Email:              "asha@example.com",
		Phone:              "+919812345678",
		MoveType:           MoveResidential,
		MoveDate:           testNow.Add(72 * time.Hour),
		OriginAddress:      "12 MG Road",
		OriginPincode:      "560001",
		DestinationAddress: "4 Park Street",
		DestinationPincode: "700016",
		PropertyType:       PropertyApartment,
		PickupFloor:        3,
		DropFloor:          1,
		PickupLift:         LiftYes,
		DropLift:           LiftNo,
	}
	moved := profile
	moved.DropFloor = 5

	cases := []struct {
		action Action
		change Change
	}{
		{ActionLeadCreated, LeadCreated{Status: StatusNew, AIEstimatedPrice: 1350}},
		{ActionManualEntry, ManualEntry{Source: ManualEntrySource}},
		{ActionLeadAssigned, Assignment{
			Previous: AssignmentSnapshot{AssignedTo: &other, Status: StatusAssigned},
			New:      AssignmentSnapshot{AssignedTo: &sales, Status: StatusAssigned},
		}},
		{ActionLeadUnassigned, Assignment{
			Previous: AssignmentSnapshot{AssignedTo: &sales, Status: StatusAssigned},
			New:      AssignmentSnapshot{Status: StatusNew},
		}},
		{ActionStatusUpdated, StatusChange{Previous: StatusContacted, New: StatusProposalSent}},
		{ActionInventoryUpdated, InventoryChange{Items: []Item{
			{Name: "Sofa", Quantity: 2, UnitPrice: 150, Category: CategoryFurniture, Source: SourceAI},
			{Name: "TV", Quantity: 1, UnitPrice: 200, Category: CategoryElectronics, Fragile: true, Source: SourceManual},
		}}},
		{ActionPriceFinalized, PriceChange{FinalPrice: 1799.5}},
		{ActionNoteAdded, NoteAdded{}},
		{ActionFollowUpScheduled, FollowUpScheduled{FollowUpID: followUp, ScheduledAt: testNow.Add(time.Hour), Note: "call < 5pm"}},
		{ActionFollowUpCompleted, FollowUpCompletedChange{FollowUpID: followUp}},
		{ActionLogisticsUpdated, LogisticsChange{Previous: profile, New: moved}},
	}

	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			raw, err := json.Marshal(tc.change)
			require.NoError(t, err)

			decoded, err := DecodeChange(tc.action, raw)
			require.NoError(t, err)
			assert.Equal(t, tc.change, decoded)
		})
	}

	raw, err := json.Marshal(cases[2].change)
	require.NoError(t, err)
	decoded, err := DecodeChange(ActionLeadAssigned, raw)
	require.NoError(t, err)

	stored := HistoryEntry{Action: ActionLeadAssigned, Timestamp: testNow, Change: decoded}
	id, ok := stored.AssignedTo()
	require.True(t, ok)
	assert.Equal(t, sales, id)

	visible := VisibleHistory([]HistoryEntry{
		{Action: ActionLeadCreated, Timestamp: testNow, Change: LeadCreated{Status: StatusNew}},
		stored,
		{Action: ActionNoteAdded, Timestamp: testNow, Change: NoteAdded{}},
	}, &Actor{UserID: sales, Role: RoleSales})
	assert.Equal(t, []Action{ActionLeadAssigned, ActionNoteAdded}, actions(visible))
}

func TestNormalizeMoveType(t *testing.T) {
	assert.Equal(t, MoveCommercial, NormalizeMoveType("Office"))
	assert.Equal(t, MoveResidential, NormalizeMoveType(" residential "))
}
