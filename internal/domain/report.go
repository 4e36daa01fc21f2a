package domain

import (
	"fmt"
	"sort"
	"time"
)

// ReportKind distinguishes incident from maintenance reports.
type ReportKind string

const (
	KindIncident    ReportKind = "incident"
	KindMaintenance ReportKind = "maintenance"
)

// ReportStatus is one of the fixed per-kind status values.
type ReportStatus string

// Incident statuses.
const (
	StatusOngoing           ReportStatus = "ongoing"
	StatusInvestigating     ReportStatus = "investigating"
	StatusIdentified        ReportStatus = "identified"
	StatusMonitoring        ReportStatus = "monitoring"
	StatusPartiallyResolved ReportStatus = "partially_resolved"
	StatusRemainsUnstable   ReportStatus = "remains_unstable"
	StatusKnownIssues       ReportStatus = "known_issues"
	StatusResolved          ReportStatus = "resolved"
)

// Maintenance statuses.
const (
	StatusScheduled         ReportStatus = "scheduled"
	StatusInProgress        ReportStatus = "in_progress"
	StatusExtended          ReportStatus = "extended"
	StatusPartiallyComplete ReportStatus = "partially_complete"
	StatusCompleted         ReportStatus = "completed"
	StatusCancelled         ReportStatus = "cancelled"
)

// ColorClass groups statuses into the three display colors.
type ColorClass string

const (
	ColorRed   ColorClass = "red"
	ColorAmber ColorClass = "amber"
	ColorGreen ColorClass = "green"
)

// Color returns the display color class for a status. Unknown statuses
// render red, matching the most alarming presentation.
func (s ReportStatus) Color() ColorClass {
	switch s {
	case StatusResolved, StatusCompleted, StatusCancelled:
		return ColorGreen
	case StatusOngoing, StatusInProgress:
		return ColorRed
	case StatusInvestigating, StatusIdentified, StatusMonitoring,
		StatusPartiallyResolved, StatusRemainsUnstable, StatusKnownIssues,
		StatusScheduled, StatusExtended, StatusPartiallyComplete:
		return ColorAmber
	}
	return ColorRed
}

// IncidentStatuses lists the valid incident status values.
func IncidentStatuses() []ReportStatus {
	return []ReportStatus{
		StatusOngoing, StatusInvestigating, StatusIdentified, StatusMonitoring,
		StatusPartiallyResolved, StatusRemainsUnstable, StatusKnownIssues,
		StatusResolved,
	}
}

// MaintenanceStatuses lists the valid maintenance status values.
func MaintenanceStatuses() []ReportStatus {
	return []ReportStatus{
		StatusScheduled, StatusInProgress, StatusExtended,
		StatusPartiallyComplete, StatusCompleted, StatusCancelled,
	}
}

// ValidStatus reports whether status belongs to the given kind.
func ValidStatus(kind ReportKind, status ReportStatus) bool {
	var set []ReportStatus
	if kind == KindMaintenance {
		set = MaintenanceStatuses()
	} else {
		set = IncidentStatuses()
	}
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

// Terminal reports whether status closes a report of the given kind.
// Terminal sets: incident {resolved}; maintenance {completed, cancelled}.
func Terminal(kind ReportKind, status ReportStatus) bool {
	if kind == KindMaintenance {
		return status == StatusCompleted || status == StatusCancelled
	}
	return status == StatusResolved
}

// Severity levels for incidents.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityMajor    Severity = "Major"
	SeverityMinor    Severity = "Minor"
	SeverityLow      Severity = "Low"
)

// Update is one timestamped, numbered addendum to a report's timeline.
// Status records the report status at the time the update was added.
type Update struct {
	Number      int          `json:"number"`
	Description string       `json:"description"`
	Timestamp   int64        `json:"timestamp"`
	Status      ReportStatus `json:"status"`
}

// StatusReport is a displayed incident or maintenance announcement. The ID
// is the identifier of the platform message that displays it. Timestamps are
// unix seconds so rendered timestamp markup stays stable across re-renders.
type StatusReport struct {
	ID            string       `json:"-"`
	Kind          ReportKind   `json:"type"`
	Title         string       `json:"title"`
	Issue         string       `json:"issue,omitempty"`
	Description   string       `json:"description,omitempty"`
	Services      string       `json:"services"`
	Status        ReportStatus `json:"status"`
	Severity      Severity     `json:"severity,omitempty"`
	ETA           string       `json:"eta,omitempty"`
	ScheduledTime int64        `json:"scheduled_time,omitempty"`
	Duration      string       `json:"duration,omitempty"`
	StartTime     int64        `json:"start_time,omitempty"`
	ResolutionTime int64       `json:"resolution_time,omitempty"`
	TotalDuration string       `json:"total_duration,omitempty"`
	StatusLink    string       `json:"status_link,omitempty"`
	Mentions      []string     `json:"mentions,omitempty"`
	Updates       []Update     `json:"updates"`
	StatusID      string       `json:"status_id,omitempty"`
	Synced        bool         `json:"synced,omitempty"`
}

// Incident reports whether the report is an incident.
func (r *StatusReport) Incident() bool {
	return r.Kind != KindMaintenance
}

// Closed reports whether the report's status is terminal for its kind.
func (r *StatusReport) Closed() bool {
	return Terminal(r.Kind, r.Status)
}

// ShouldBePinned holds iff the report is still active: pin state on the
// platform must always equal this.
func (r *StatusReport) ShouldBePinned() bool {
	return !r.Closed()
}

// DefiningTime is the record's ordering field: start time for incidents,
// scheduled time for maintenances.
func (r *StatusReport) DefiningTime() int64 {
	if r.Kind == KindMaintenance {
		return r.ScheduledTime
	}
	return r.StartTime
}

// NormalizeUpdates re-sorts the timeline by timestamp ascending and rewrites
// Number as the contiguous range 1..len(updates). Must run after every
// insertion or deletion.
func (r *StatusReport) NormalizeUpdates() {
	sort.SliceStable(r.Updates, func(i, j int) bool {
		return r.Updates[i].Timestamp < r.Updates[j].Timestamp
	})
	for i := range r.Updates {
		r.Updates[i].Number = i + 1
	}
}

// FormatDuration expresses end-start as whole seconds formatted
// "{hours}h {minutes}m" when hours > 0, else "{minutes}m".
func FormatDuration(start, end time.Time) string {
	secs := int64(end.Sub(start).Seconds())
	if secs < 0 {
		secs = 0
	}
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
