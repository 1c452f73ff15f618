package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ml/helpdesk/internal/classifier"
	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/testutil"
	apperrors "github.com/helpdesk-ml/helpdesk/pkg/errorutil"
)

func TestDashboardCountsAndModel(t *testing.T) {
	h := newHarness(t, fixedPrediction("Hardware", 0.85))
	ctx := context.Background()
	user := testutil.CreateUser(t, h.repos, "reporter")
	testutil.CreateTechnician(t, h.repos, "fixer", 0, "Hardware")

	h.submitAssigned(t, user.ID)
	h.submitAssigned(t, user.ID)

	dashboard, err := h.admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dashboard.Stats.Total)
	assert.Equal(t, 2, dashboard.Stats.Open)
	assert.Equal(t, 2, dashboard.Stats.ByCategory["Hardware"])
	assert.Len(t, dashboard.Recent, 2)
	assert.Nil(t, dashboard.ActiveModel)

	meta := classifier.Metadata{ModelVersion: "v2", ModelType: "LogisticRegression", Accuracy: 0.91, TrainingDate: "2026-01-15"}
	first, err := h.admin.RegisterModel(ctx, meta, "models/v2.json")
	require.NoError(t, err)
	again, err := h.admin.RegisterModel(ctx, meta, "models/v2.json")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	meta.ModelVersion = "v3"
	third, err := h.admin.RegisterModel(ctx, meta, "models/v3.json")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)

	dashboard, err = h.admin.Dashboard(ctx)
	require.NoError(t, err)
	require.NotNil(t, dashboard.ActiveModel)
	assert.Equal(t, "v3", dashboard.ActiveModel.ModelVersion)
	assert.Equal(t, 2026, dashboard.ActiveModel.TrainingDate.Year())
}

func TestExportTickets(t *testing.T) {
	h := newHarness(t, fixedPrediction("Hardware", 0.85))
	user := testutil.CreateUser(t, h.repos, "reporter")
	testutil.CreateTechnician(t, h.repos, "fixer", 0, "Hardware")
	h.submitAssigned(t, user.ID)

	var buf bytes.Buffer
	require.NoError(t, h.admin.ExportTickets(context.Background(), &buf))
	// xlsx files are zip archives
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))
}

func TestReconcileWorkloadFixesDrift(t *testing.T) {
	h := newHarness(t, fixedPrediction("Hardware", 0.85))
	ctx := context.Background()
	user := testutil.CreateUser(t, h.repos, "reporter")
	tech := testutil.CreateTechnician(t, h.repos, "fixer", 0, "Hardware")
	stale := testutil.CreateTechnician(t, h.repos, "stale", 6, "Printers")
	h.submitAssigned(t, user.ID)

	drifts, err := h.technicians.ReconcileWorkload(ctx, false)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, WorkloadDrift{TechnicianID: stale.ID, Name: "stale", Stored: 6, Actual: 0}, drifts[0])
	assert.Equal(t, 6, h.technician(t, stale.ID).CurrentWorkload)

	_, err = h.technicians.ReconcileWorkload(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 0, h.technician(t, stale.ID).CurrentWorkload)
	assert.Equal(t, 1, h.technician(t, tech.ID).CurrentWorkload)
	assert.Len(t, h.auditOf(t, domain.AuditWorkloadReconciled), 1)

	drifts, err = h.technicians.ReconcileWorkload(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestNotificationInbox(t *testing.T) {
	h := newHarness(t, fixedPrediction("Hardware", 0.85))
	ctx := context.Background()
	user := testutil.CreateUser(t, h.repos, "reporter")
	tech := testutil.CreateTechnician(t, h.repos, "fixer", 0, "Hardware")
	h.submitAssigned(t, user.ID)

	techActor := Actor{Type: domain.SubjectTypeTechnician, ID: tech.ID}
	inbox, err := h.inbox.List(ctx, techActor, 10)
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, 1, inbox.Unread)

	id := inbox.Notifications[0].ID
	err = h.inbox.MarkRead(ctx, Actor{Type: domain.SubjectTypeUser, ID: user.ID}, id)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	require.NoError(t, h.inbox.MarkRead(ctx, techActor, id))
	inbox, err = h.inbox.List(ctx, techActor, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, inbox.Unread)
	assert.True(t, inbox.Notifications[0].Read)
}
