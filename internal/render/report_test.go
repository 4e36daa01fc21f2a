package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moddy-app/moddysystems/internal/domain"
)

func activeIncident() *domain.StatusReport {
	return &domain.StatusReport{
		ID:       "msg-1",
		Kind:     domain.KindIncident,
		Title:    "API Down",
		Issue:    "Gateway timeouts",
		Services: "API, Dashboard",
		Status:   domain.StatusInvestigating,
		Severity: domain.SeverityMajor,
		StartTime: 1756600000,
		StatusID:  "INC-20260301-123456",
		Updates: []domain.Update{
			{Number: 1, Description: "looking into it", Timestamp: 1756600100, Status: domain.StatusInvestigating},
		},
	}
}

func TestReportIncidentLayout(t *testing.T) {
	blocks := Report(activeIncident())
	require.Len(t, blocks, 4)
	assert.Equal(t, BlockSeparator, blocks[1].Kind)

	head := blocks[0].Text
	assert.Contains(t, head, "🔴 **API Down**")
	assert.Contains(t, head, "* **Issue:** Gateway timeouts")
	assert.Contains(t, head, "* **Type:** `Incident`")
	assert.Contains(t, head, "* **Severity:** `Major`")
	assert.Contains(t, head, "* **Status:** `Investigating`")
	assert.Contains(t, head, "* **ETA:** `TBD`")
	assert.Contains(t, head, "* **Started:** <t:1756600000:F>")
	assert.Contains(t, head, "* **Status ID:** `INC-20260301-123456`")

	assert.Contains(t, blocks[2].Text, "> **Update 1 — Investigating, <t:1756600100:R>:**")
	assert.Contains(t, blocks[2].Text, "> looking into it")
	assert.Equal(t, "-# Status updates", blocks[3].Text)
}

func TestReportResolvedIncidentHeader(t *testing.T) {
	r := activeIncident()
	r.Status = domain.StatusResolved
	r.TotalDuration = "1h 30m"

	blocks := Report(r)
	assert.Contains(t, blocks[0].Text, "🟢 **API Down — Resolved (1h 30m)**")
	assert.Contains(t, blocks[0].Text, "* **ETA:** `Resolved`")
}

func TestReportStatusGlyphFollowsColor(t *testing.T) {
	r := activeIncident()

	r.Status = domain.StatusMonitoring
	assert.Contains(t, Report(r)[0].Text, "🟠")

	r.Status = domain.StatusKnownIssues
	assert.Contains(t, Report(r)[0].Text, "🟠")

	r.Status = domain.StatusOngoing
	assert.Contains(t, Report(r)[0].Text, "🔴")
}

func TestReportMaintenanceLayout(t *testing.T) {
	r := &domain.StatusReport{
		Kind:          domain.KindMaintenance,
		Title:         "DB upgrade",
		Description:   "Cluster rollover",
		Services:      "API",
		Status:        domain.StatusScheduled,
		ScheduledTime: 1756610000,
		Duration:      "2 hours",
		StatusID:      "MNT-20260301-654321",
	}
	blocks := Report(r)

	head := blocks[0].Text
	assert.Contains(t, head, "**Scheduled Maintenance: DB upgrade**")
	assert.Contains(t, head, "* **Type:** `Maintenance`")
	assert.Contains(t, head, "* **Scheduled time:** <t:1756610000:F>")
	assert.Contains(t, head, "* **Expected duration:** `2 hours`")
	assert.NotContains(t, head, "Severity")
	assert.NotContains(t, head, "ETA")

	r.Status = domain.StatusCompleted
	assert.Contains(t, Report(r)[0].Text, "🟢 **Maintenance: DB upgrade — Completed**")
	r.Status = domain.StatusCancelled
	assert.Contains(t, Report(r)[0].Text, "**Maintenance: DB upgrade — Cancelled**")
}

func TestReportEmptyTimelineAndMentions(t *testing.T) {
	r := activeIncident()
	r.Updates = nil
	r.Mentions = []string{"<@&111>", "<@&222>"}

	blocks := Report(r)
	assert.Equal(t, "*No updates yet*", blocks[2].Text)
	assert.Equal(t, "-# <@&111> <@&222>", blocks[3].Text)
}

func TestReportIsIdempotent(t *testing.T) {
	r := activeIncident()
	first := Report(r)
	second := Report(r)
	assert.Equal(t, first, second)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Partially Resolved", StatusLabel(domain.StatusPartiallyResolved))
	assert.Equal(t, "In Progress", StatusLabel(domain.StatusInProgress))
	assert.Equal(t, "Ongoing", StatusLabel(domain.StatusOngoing))
}
