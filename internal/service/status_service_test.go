package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moddy-app/moddysystems/internal/domain"
	"github.com/moddy-app/moddysystems/internal/platform"
	"github.com/moddy-app/moddysystems/internal/render"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

type fakeReportStore struct {
	reports map[string]*domain.StatusReport
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: map[string]*domain.StatusReport{}}
}

func (s *fakeReportStore) Get(id string) (*domain.StatusReport, error) {
	report, ok := s.reports[id]
	if !ok {
		return nil, util.NewNotFound("status report", map[string]any{"id": id})
	}
	return report, nil
}

func (s *fakeReportStore) Save(report *domain.StatusReport) error {
	s.reports[report.ID] = report
	return nil
}

func (s *fakeReportStore) All() ([]*domain.StatusReport, error) {
	out := make([]*domain.StatusReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	return out, nil
}

type fakeMessenger struct {
	sent  []render.Blocks
	edits []string
	botID string
}

func (m *fakeMessenger) SendBlocks(ctx context.Context, channelID string, blocks render.Blocks) (string, error) {
	m.sent = append(m.sent, blocks)
	return fmt.Sprintf("msg-%d", len(m.sent)), nil
}

func (m *fakeMessenger) EditBlocks(ctx context.Context, channelID, messageID string, blocks render.Blocks) error {
	m.edits = append(m.edits, messageID)
	return nil
}

func (m *fakeMessenger) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return nil
}

func (m *fakeMessenger) FetchMessage(ctx context.Context, channelID, messageID string) (*platform.Message, error) {
	return nil, util.NewNotFound("message", nil)
}

func (m *fakeMessenger) CanSend(ctx context.Context, channelID string) (bool, error) {
	return true, nil
}

func (m *fakeMessenger) BotUserID() string {
	if m.botID != "" {
		return m.botID
	}
	return "bot-1"
}

type fakePinner struct {
	pins    []string
	unpins  []string
	pinned  []platform.Message
	history []platform.Message
}

func (p *fakePinner) PinMessage(ctx context.Context, channelID, messageID string) error {
	p.pins = append(p.pins, messageID)
	return nil
}

func (p *fakePinner) UnpinMessage(ctx context.Context, channelID, messageID string) error {
	p.unpins = append(p.unpins, messageID)
	return nil
}

func (p *fakePinner) PinnedMessages(ctx context.Context, channelID string) ([]platform.Message, error) {
	return p.pinned, nil
}

func (p *fakePinner) RecentMessages(ctx context.Context, channelID string, limit int) ([]platform.Message, error) {
	return p.history, nil
}

func newTestStatusService(t *testing.T) (*StatusService, *fakeReportStore, *fakeMessenger, *fakePinner) {
	t.Helper()
	store := newFakeReportStore()
	messenger := &fakeMessenger{}
	pinner := &fakePinner{}
	svc := NewStatusService(StatusDependencies{
		Store:     store,
		Messenger: messenger,
		Pinner:    pinner,
		Logger:    zap.NewNop(),
		ChannelID: "status-channel",
	})
	return svc, store, messenger, pinner
}

func TestCreateIncidentStoresAndPins(t *testing.T) {
	svc, store, _, pinner := newTestStatusService(t)

	report, err := svc.CreateIncident(context.Background(), "staff-1", IncidentInput{
		Title:    "API Down",
		Issue:    "Gateway timeouts",
		Services: "API",
		Severity: domain.SeverityMajor,
	})
	require.NoError(t, err)

	assert.Equal(t, "msg-1", report.ID)
	assert.Equal(t, domain.StatusInvestigating, report.Status)
	assert.Regexp(t, `^INC-\d{8}-\d{6}$`, report.StatusID)
	assert.Equal(t, "TBD", report.ETA)
	assert.Contains(t, store.reports, "msg-1")
	assert.Equal(t, []string{"msg-1"}, pinner.pins)
}

func TestCreateIncidentRejectsForeignStatus(t *testing.T) {
	svc, _, _, _ := newTestStatusService(t)

	_, err := svc.CreateIncident(context.Background(), "staff-1", IncidentInput{
		Title:  "API Down",
		Status: domain.StatusScheduled,
	})
	assert.True(t, util.IsCode(err, util.CodeValidation))
}

func TestScheduleMaintenanceDoesNotPin(t *testing.T) {
	svc, _, _, pinner := newTestStatusService(t)

	report, err := svc.ScheduleMaintenance(context.Background(), "staff-1", MaintenanceInput{
		Title:         "DB upgrade",
		Description:   "Cluster rollover",
		Services:      "API",
		ScheduledTime: 1700000000,
		Duration:      "2 hours",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusScheduled, report.Status)
	assert.Regexp(t, `^MNT-\d{8}-\d{6}$`, report.StatusID)
	assert.Empty(t, pinner.pins)
}

func TestAddUpdateKeepsTimelineOrderedAndContiguous(t *testing.T) {
	svc, _, _, _ := newTestStatusService(t)
	ctx := context.Background()

	report, err := svc.CreateIncident(ctx, "staff-1", IncidentInput{Title: "API Down"})
	require.NoError(t, err)

	_, err = svc.AddUpdate(ctx, "staff-1", report.ID, "later entry", "", "", 2000)
	require.NoError(t, err)
	report, err = svc.AddUpdate(ctx, "staff-1", report.ID, "earlier entry", domain.StatusMonitoring, "", 1000)
	require.NoError(t, err)

	require.Len(t, report.Updates, 2)
	assert.Equal(t, "earlier entry", report.Updates[0].Description)
	assert.Equal(t, 1, report.Updates[0].Number)
	assert.Equal(t, 2, report.Updates[1].Number)
	assert.True(t, report.Updates[0].Timestamp <= report.Updates[1].Timestamp)

	// Each update carries the status the report had when it was added.
	assert.Equal(t, domain.StatusMonitoring, report.Updates[0].Status)
	assert.Equal(t, domain.StatusInvestigating, report.Updates[1].Status)
	assert.Equal(t, domain.StatusMonitoring, report.Status)
}

func TestDeleteUpdateValidatesNumber(t *testing.T) {
	svc, _, _, _ := newTestStatusService(t)
	ctx := context.Background()

	report, err := svc.CreateIncident(ctx, "staff-1", IncidentInput{Title: "API Down"})
	require.NoError(t, err)
	_, err = svc.AddUpdate(ctx, "staff-1", report.ID, "first", "", "", 1000)
	require.NoError(t, err)
	_, err = svc.AddUpdate(ctx, "staff-1", report.ID, "second", "", "", 2000)
	require.NoError(t, err)

	_, err = svc.DeleteUpdate(ctx, "staff-1", report.ID, 0)
	assert.True(t, util.IsCode(err, util.CodeValidation))
	_, err = svc.DeleteUpdate(ctx, "staff-1", report.ID, 3)
	assert.True(t, util.IsCode(err, util.CodeValidation))

	report, err = svc.DeleteUpdate(ctx, "staff-1", report.ID, 1)
	require.NoError(t, err)
	require.Len(t, report.Updates, 1)
	assert.Equal(t, "second", report.Updates[0].Description)
	assert.Equal(t, 1, report.Updates[0].Number)
}

func TestResolveClosesIncident(t *testing.T) {
	svc, _, _, pinner := newTestStatusService(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	report, err := svc.CreateIncident(ctx, "staff-1", IncidentInput{Title: "API Down"})
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(90 * time.Minute) }
	report, err = svc.Resolve(ctx, "staff-1", report.ID, "Rolled back the deploy.")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusResolved, report.Status)
	assert.Equal(t, "1h 30m", report.TotalDuration)
	assert.Equal(t, start.Add(90*time.Minute).Unix(), report.ResolutionTime)
	require.NotEmpty(t, report.Updates)
	assert.Equal(t, "RESOLVED: Rolled back the deploy.", report.Updates[len(report.Updates)-1].Description)
	assert.Equal(t, []string{report.ID}, pinner.unpins)
}

func TestResolveRejectsMaintenance(t *testing.T) {
	svc, _, _, _ := newTestStatusService(t)
	ctx := context.Background()

	report, err := svc.ScheduleMaintenance(ctx, "staff-1", MaintenanceInput{
		Title: "DB upgrade", ScheduledTime: 1700000000,
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, "staff-1", report.ID, "")
	assert.True(t, util.IsCode(err, util.CodeValidation))
}

func TestCompleteClosesMaintenance(t *testing.T) {
	svc, _, _, _ := newTestStatusService(t)
	ctx := context.Background()

	report, err := svc.ScheduleMaintenance(ctx, "staff-1", MaintenanceInput{
		Title: "DB upgrade", ScheduledTime: 1700000000,
	})
	require.NoError(t, err)

	report, err = svc.Complete(ctx, "staff-1", report.ID, "No data loss.")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, report.Status)
	require.Len(t, report.Updates, 1)
	assert.Contains(t, report.Updates[0].Description, "No data loss.")
}

func TestNonTerminalTransitionLeavesPinAlone(t *testing.T) {
	svc, _, _, pinner := newTestStatusService(t)
	ctx := context.Background()

	report, err := svc.CreateIncident(ctx, "staff-1", IncidentInput{Title: "API Down"})
	require.NoError(t, err)
	pinner.pins = nil

	_, err = svc.SetStatus(ctx, "staff-1", report.ID, domain.StatusMonitoring)
	require.NoError(t, err)
	assert.Empty(t, pinner.pins)
	assert.Empty(t, pinner.unpins)
}

func TestListFiltersAndSortsByDefiningTime(t *testing.T) {
	svc, store, _, _ := newTestStatusService(t)
	ctx := context.Background()

	store.reports["a"] = &domain.StatusReport{ID: "a", Kind: domain.KindIncident, Status: domain.StatusOngoing, StartTime: 100}
	store.reports["b"] = &domain.StatusReport{ID: "b", Kind: domain.KindIncident, Status: domain.StatusOngoing, StartTime: 300}
	store.reports["c"] = &domain.StatusReport{ID: "c", Kind: domain.KindIncident, Status: domain.StatusResolved, StartTime: 200}
	store.reports["d"] = &domain.StatusReport{ID: "d", Kind: domain.KindMaintenance, Status: domain.StatusScheduled, ScheduledTime: 400}

	active, err := svc.List(ctx, domain.KindIncident, FilterActive)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "b", active[0].ID)
	assert.Equal(t, "a", active[1].ID)

	resolved, err := svc.List(ctx, domain.KindIncident, FilterResolved)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "c", resolved[0].ID)
}

func TestReconcileRepinsAndRecoversOrphans(t *testing.T) {
	svc, store, messenger, pinner := newTestStatusService(t)
	ctx := context.Background()

	// Active incident whose pin was lost.
	store.reports["known"] = &domain.StatusReport{
		ID: "known", Kind: domain.KindIncident, Status: domain.StatusOngoing, StartTime: 100,
	}
	// Bot-authored report message nobody tracked.
	pinner.history = []platform.Message{
		{ID: "orphan", AuthorID: messenger.BotUserID(), Content: "🔴 **Oops**\n* **Issue:** x\n* **Type:** `Incident`"},
		{ID: "chatter", AuthorID: "someone-else", Content: "* **Type:** `Incident`"},
		{ID: "plain", AuthorID: messenger.BotUserID(), Content: "hello"},
	}

	require.NoError(t, svc.Reconcile(ctx))

	assert.Equal(t, []string{"known"}, pinner.pins)
	recovered, ok := store.reports["orphan"]
	require.True(t, ok)
	assert.True(t, recovered.Synced)
	assert.Equal(t, domain.KindIncident, recovered.Kind)
	assert.NotContains(t, store.reports, "chatter")
	assert.NotContains(t, store.reports, "plain")
}

func TestRefreshActiveEditsOnlyOpenIncidents(t *testing.T) {
	svc, store, messenger, _ := newTestStatusService(t)
	ctx := context.Background()

	store.reports["open"] = &domain.StatusReport{ID: "open", Kind: domain.KindIncident, Status: domain.StatusOngoing}
	store.reports["closed"] = &domain.StatusReport{ID: "closed", Kind: domain.KindIncident, Status: domain.StatusResolved}
	store.reports["mnt"] = &domain.StatusReport{ID: "mnt", Kind: domain.KindMaintenance, Status: domain.StatusScheduled}

	svc.RefreshActive(ctx)
	assert.Equal(t, []string{"open"}, messenger.edits)
}

func TestExportEnvelopeCountsRecords(t *testing.T) {
	svc, store, _, _ := newTestStatusService(t)
	store.reports["a"] = &domain.StatusReport{ID: "a", Kind: domain.KindIncident, Status: domain.StatusOngoing}
	store.reports["b"] = &domain.StatusReport{ID: "b", Kind: domain.KindMaintenance, Status: domain.StatusScheduled}

	payload, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"count": 2`)
	assert.Contains(t, string(payload), `"export_id"`)
}

func TestComputeStats(t *testing.T) {
	svc, store, _, _ := newTestStatusService(t)
	store.reports["a"] = &domain.StatusReport{
		ID: "a", Kind: domain.KindIncident, Status: domain.StatusResolved,
		Severity: domain.SeverityMajor, StartTime: 0, ResolutionTime: 5400,
	}
	store.reports["b"] = &domain.StatusReport{ID: "b", Kind: domain.KindIncident, Status: domain.StatusOngoing}
	store.reports["c"] = &domain.StatusReport{ID: "c", Kind: domain.KindMaintenance, Status: domain.StatusCompleted}

	stats, err := svc.ComputeStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Incidents)
	assert.Equal(t, 1, stats.Maintenances)
	assert.Equal(t, 1, stats.ActiveIncidents)
	assert.Equal(t, 1, stats.ResolvedIncidents)
	assert.Equal(t, "1h 30m", stats.AvgResolutionDuration)
	assert.Equal(t, 1, stats.BySeverity[domain.SeverityMajor])
}
