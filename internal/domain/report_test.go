package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUpdates(t *testing.T) {
	r := &StatusReport{Updates: []Update{
		{Number: 7, Description: "c", Timestamp: 300},
		{Number: 1, Description: "a", Timestamp: 100},
		{Number: 2, Description: "b", Timestamp: 200},
	}}
	r.NormalizeUpdates()

	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, r.Updates[i].Description)
		assert.Equal(t, i+1, r.Updates[i].Number)
	}
}

func TestNormalizeUpdatesStableForEqualTimestamps(t *testing.T) {
	r := &StatusReport{Updates: []Update{
		{Description: "first", Timestamp: 100},
		{Description: "second", Timestamp: 100},
	}}
	r.NormalizeUpdates()

	assert.Equal(t, "first", r.Updates[0].Description)
	assert.Equal(t, "second", r.Updates[1].Description)
}

func TestTerminalSets(t *testing.T) {
	assert.True(t, Terminal(KindIncident, StatusResolved))
	assert.False(t, Terminal(KindIncident, StatusKnownIssues))
	assert.False(t, Terminal(KindIncident, StatusPartiallyResolved))

	assert.True(t, Terminal(KindMaintenance, StatusCompleted))
	assert.True(t, Terminal(KindMaintenance, StatusCancelled))
	assert.False(t, Terminal(KindMaintenance, StatusPartiallyComplete))
}

func TestValidStatusPerKind(t *testing.T) {
	assert.True(t, ValidStatus(KindIncident, StatusMonitoring))
	assert.False(t, ValidStatus(KindIncident, StatusScheduled))
	assert.True(t, ValidStatus(KindMaintenance, StatusInProgress))
	assert.False(t, ValidStatus(KindMaintenance, StatusInvestigating))
}

func TestShouldBePinnedTracksTerminal(t *testing.T) {
	r := &StatusReport{Kind: KindIncident, Status: StatusOngoing}
	assert.True(t, r.ShouldBePinned())
	r.Status = StatusResolved
	assert.False(t, r.ShouldBePinned())
}

func TestDefiningTime(t *testing.T) {
	inc := &StatusReport{Kind: KindIncident, StartTime: 100, ScheduledTime: 999}
	assert.Equal(t, int64(100), inc.DefiningTime())

	mnt := &StatusReport{Kind: KindMaintenance, StartTime: 999, ScheduledTime: 200}
	assert.Equal(t, int64(200), mnt.DefiningTime())
}

func TestFormatDuration(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "0m", FormatDuration(start, start))
	assert.Equal(t, "45m", FormatDuration(start, start.Add(45*time.Minute)))
	assert.Equal(t, "2h 5m", FormatDuration(start, start.Add(125*time.Minute)))
	// Sub-minute remainders are dropped, not rounded.
	assert.Equal(t, "1m", FormatDuration(start, start.Add(119*time.Second)))
	// A clock that ran backwards clamps to zero.
	assert.Equal(t, "0m", FormatDuration(start, start.Add(-time.Minute)))
}
