package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moddy-app/moddysystems/internal/domain"
	"github.com/moddy-app/moddysystems/internal/events"
	"github.com/moddy-app/moddysystems/internal/platform"
	"github.com/moddy-app/moddysystems/internal/render"
	"github.com/moddy-app/moddysystems/internal/repository"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

// How much channel history reconciliation scans for orphaned report
// messages. Anything older is not recovered.
const reconcileHistoryLimit = 100

// StatusService owns the status report workflow: record mutations, message
// re-rendering, and pin-state maintenance. Incidents are pinned while
// active; maintenance messages are never pinned.
type StatusService struct {
	store      repository.ReportStore
	messenger  platform.Messenger
	pinner     platform.Pinner
	dispatcher events.Dispatcher
	logger     *zap.Logger
	channelID  string
	now        func() time.Time
}

// StatusDependencies bundles collaborators for the status service.
type StatusDependencies struct {
	Store      repository.ReportStore
	Messenger  platform.Messenger
	Pinner     platform.Pinner
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	ChannelID  string
}

// NewStatusService constructs the service.
func NewStatusService(deps StatusDependencies) *StatusService {
	return &StatusService{
		store:      deps.Store,
		messenger:  deps.Messenger,
		pinner:     deps.Pinner,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		channelID:  deps.ChannelID,
		now:        time.Now,
	}
}

// IncidentInput describes incident creation fields.
type IncidentInput struct {
	Title      string
	Issue      string
	Services   string
	Status     domain.ReportStatus
	Severity   domain.Severity
	ETA        string
	StatusLink string
	Mentions   []string
}

// MaintenanceInput describes maintenance scheduling fields.
type MaintenanceInput struct {
	Title         string
	Description   string
	Services      string
	ScheduledTime int64
	Duration      string
	StatusLink    string
	Mentions      []string
}

// CreateIncident posts a new incident message, stores its record, and pins
// the message. Store failures are logged only: the platform-side message
// still stands.
func (s *StatusService) CreateIncident(ctx context.Context, actor string, input IncidentInput) (*domain.StatusReport, error) {
	status := input.Status
	if status == "" {
		status = domain.StatusInvestigating
	}
	if !domain.ValidStatus(domain.KindIncident, status) {
		return nil, util.NewValidationError(fmt.Sprintf("invalid incident status %q", status), nil)
	}

	now := s.now()
	report := &domain.StatusReport{
		Kind:       domain.KindIncident,
		Title:      strings.TrimSpace(input.Title),
		Issue:      strings.TrimSpace(input.Issue),
		Services:   strings.TrimSpace(input.Services),
		Status:     status,
		Severity:   input.Severity,
		ETA:        strings.TrimSpace(input.ETA),
		StatusLink: strings.TrimSpace(input.StatusLink),
		Mentions:   input.Mentions,
		StartTime:  now.Unix(),
		StatusID:   statusID(domain.KindIncident, now),
		Updates:    []domain.Update{},
	}
	if report.ETA == "" {
		report.ETA = "TBD"
	}

	messageID, err := s.messenger.SendBlocks(ctx, s.channelID, render.Report(report))
	if err != nil {
		return nil, err
	}
	report.ID = messageID

	if err := s.store.Save(report); err != nil {
		s.logger.Error("failed to persist incident", zap.String("id", report.ID), zap.Error(err))
	}
	if err := s.pinner.PinMessage(ctx, s.channelID, messageID); err != nil {
		s.logger.Warn("failed to pin incident message", zap.String("id", messageID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:      events.EventReportCreated,
		SubjectID: report.ID,
		Actor:     actor,
		Payload: events.ReportCreatedPayload{
			Kind:     report.Kind,
			Title:    report.Title,
			StatusID: report.StatusID,
			Status:   report.Status,
		},
	})
	return report, nil
}

// ScheduleMaintenance posts a new maintenance message and stores its
// record. Maintenance messages are not pinned.
func (s *StatusService) ScheduleMaintenance(ctx context.Context, actor string, input MaintenanceInput) (*domain.StatusReport, error) {
	if input.ScheduledTime <= 0 {
		return nil, util.NewValidationError("scheduled time must be a unix timestamp", nil)
	}

	now := s.now()
	report := &domain.StatusReport{
		Kind:          domain.KindMaintenance,
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Services:      strings.TrimSpace(input.Services),
		Status:        domain.StatusScheduled,
		ScheduledTime: input.ScheduledTime,
		Duration:      strings.TrimSpace(input.Duration),
		StatusLink:    strings.TrimSpace(input.StatusLink),
		Mentions:      input.Mentions,
		StatusID:      statusID(domain.KindMaintenance, now),
		Updates:       []domain.Update{},
	}

	messageID, err := s.messenger.SendBlocks(ctx, s.channelID, render.Report(report))
	if err != nil {
		return nil, err
	}
	report.ID = messageID

	if err := s.store.Save(report); err != nil {
		s.logger.Error("failed to persist maintenance", zap.String("id", report.ID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:      events.EventReportCreated,
		SubjectID: report.ID,
		Actor:     actor,
		Payload: events.ReportCreatedPayload{
			Kind:     report.Kind,
			Title:    report.Title,
			StatusID: report.StatusID,
			Status:   report.Status,
		},
	})
	return report, nil
}

// AddUpdate appends a timeline update. When newStatus is non-empty the
// report's status changes first, so the update records the status it was
// added under. A zero timestamp means now.
func (s *StatusService) AddUpdate(ctx context.Context, actor, id, description string, newStatus domain.ReportStatus, eta string, timestamp int64) (*domain.StatusReport, error) {
	report, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	oldStatus := report.Status
	if newStatus != "" {
		if !domain.ValidStatus(report.Kind, newStatus) {
			return nil, util.NewValidationError(fmt.Sprintf("invalid %s status %q", report.Kind, newStatus), nil)
		}
		report.Status = newStatus
	}
	if eta != "" && report.Incident() {
		report.ETA = strings.TrimSpace(eta)
	}
	if timestamp <= 0 {
		timestamp = s.now().Unix()
	}

	report.Updates = append(report.Updates, domain.Update{
		Description: strings.TrimSpace(description),
		Timestamp:   timestamp,
		Status:      report.Status,
	})
	report.NormalizeUpdates()

	if err := s.persistAndRender(ctx, report); err != nil {
		return nil, err
	}
	s.syncPin(ctx, report, oldStatus)

	s.publish(ctx, events.Event{Type: events.EventReportUpdated, SubjectID: report.ID, Actor: actor})
	if newStatus != "" && newStatus != oldStatus {
		s.publishStatusChange(ctx, actor, report, oldStatus)
	}
	return report, nil
}

// DeleteUpdate removes the numbered update and renumbers the remainder.
func (s *StatusService) DeleteUpdate(ctx context.Context, actor, id string, number int) (*domain.StatusReport, error) {
	report, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if number < 1 || number > len(report.Updates) {
		return nil, util.NewValidationError(fmt.Sprintf("invalid update number %d", number), map[string]any{
			"updates": len(report.Updates),
		})
	}

	remaining := report.Updates[:0]
	for _, upd := range report.Updates {
		if upd.Number != number {
			remaining = append(remaining, upd)
		}
	}
	report.Updates = remaining
	report.NormalizeUpdates()

	if err := s.persistAndRender(ctx, report); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.EventReportUpdated, SubjectID: report.ID, Actor: actor})
	return report, nil
}

// SetStatus overwrites the report status without appending an update.
func (s *StatusService) SetStatus(ctx context.Context, actor, id string, newStatus domain.ReportStatus) (*domain.StatusReport, error) {
	report, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !domain.ValidStatus(report.Kind, newStatus) {
		return nil, util.NewValidationError(fmt.Sprintf("invalid %s status %q", report.Kind, newStatus), nil)
	}

	oldStatus := report.Status
	report.Status = newStatus

	if err := s.persistAndRender(ctx, report); err != nil {
		return nil, err
	}
	s.syncPin(ctx, report, oldStatus)
	if newStatus != oldStatus {
		s.publishStatusChange(ctx, actor, report, oldStatus)
	}
	return report, nil
}

// Resolve closes an incident: status becomes resolved, a synthesized
// "RESOLVED: …" update is appended, and the total duration is computed from
// the start time. The pinned message is released.
func (s *StatusService) Resolve(ctx context.Context, actor, id, resolution string) (*domain.StatusReport, error) {
	report, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !report.Incident() {
		return nil, util.NewValidationError("resolve applies to incidents only", nil)
	}

	now := s.now()
	oldStatus := report.Status
	report.Status = domain.StatusResolved
	report.ResolutionTime = now.Unix()
	report.TotalDuration = domain.FormatDuration(time.Unix(report.StartTime, 0), now)

	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		resolution = "The incident has been resolved."
	}
	report.Updates = append(report.Updates, domain.Update{
		Description: "RESOLVED: " + resolution,
		Timestamp:   now.Unix(),
		Status:      report.Status,
	})
	report.NormalizeUpdates()

	if err := s.persistAndRender(ctx, report); err != nil {
		return nil, err
	}
	s.syncPin(ctx, report, oldStatus)

	s.publish(ctx, events.Event{
		Type:      events.EventReportClosed,
		SubjectID: report.ID,
		Actor:     actor,
		Payload:   events.ReportStatusChangedPayload{OldStatus: oldStatus, NewStatus: report.Status},
	})
	return report, nil
}

// Complete closes a maintenance with a synthesized completion update.
func (s *StatusService) Complete(ctx context.Context, actor, id, notes string) (*domain.StatusReport, error) {
	report, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if report.Incident() {
		return nil, util.NewValidationError("complete applies to maintenances only", nil)
	}

	now := s.now()
	oldStatus := report.Status
	report.Status = domain.StatusCompleted

	description := "The maintenance has been completed successfully."
	if notes = strings.TrimSpace(notes); notes != "" {
		description += " " + notes
	}
	report.Updates = append(report.Updates, domain.Update{
		Description: description,
		Timestamp:   now.Unix(),
		Status:      report.Status,
	})
	report.NormalizeUpdates()

	if err := s.persistAndRender(ctx, report); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventReportClosed,
		SubjectID: report.ID,
		Actor:     actor,
		Payload:   events.ReportStatusChangedPayload{OldStatus: oldStatus, NewStatus: report.Status},
	})
	return report, nil
}

// ListFilter partitions reports by terminal status.
type ListFilter string

const (
	FilterActive   ListFilter = "active"
	FilterResolved ListFilter = "resolved"
)

// List returns reports of one kind, partitioned by the terminal set and
// sorted by their defining time, most recent first.
func (s *StatusService) List(ctx context.Context, kind domain.ReportKind, filter ListFilter) ([]*domain.StatusReport, error) {
	reports, err := s.store.All()
	if err != nil {
		return nil, err
	}

	wantClosed := filter == FilterResolved
	result := make([]*domain.StatusReport, 0, len(reports))
	for _, report := range reports {
		if report.Kind != kind {
			continue
		}
		if report.Closed() != wantClosed {
			continue
		}
		result = append(result, report)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DefiningTime() > result[j].DefiningTime()
	})
	return result, nil
}

// ExportEnvelope wraps a full store export.
type ExportEnvelope struct {
	ExportID    string                          `json:"export_id"`
	GeneratedAt int64                           `json:"generated_at"`
	Count       int                             `json:"count"`
	Reports     map[string]*domain.StatusReport `json:"reports"`
}

// Export serializes the full report store.
func (s *StatusService) Export(ctx context.Context) ([]byte, error) {
	reports, err := s.store.All()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.StatusReport, len(reports))
	for _, report := range reports {
		byID[report.ID] = report
	}
	envelope := ExportEnvelope{
		ExportID:    uuid.NewString(),
		GeneratedAt: s.now().Unix(),
		Count:       len(byID),
		Reports:     byID,
	}
	return json.MarshalIndent(envelope, "", "  ")
}

// Stats aggregates the report store.
type Stats struct {
	Incidents             int
	Maintenances          int
	ActiveIncidents       int
	ResolvedIncidents     int
	ByStatus              map[domain.ReportStatus]int
	BySeverity            map[domain.Severity]int
	AvgResolutionDuration string
}

// ComputeStats summarizes the report store.
func (s *StatusService) ComputeStats(ctx context.Context) (*Stats, error) {
	reports, err := s.store.All()
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		ByStatus:   map[domain.ReportStatus]int{},
		BySeverity: map[domain.Severity]int{},
	}
	var resolutionTotal, resolutionCount int64
	for _, report := range reports {
		stats.ByStatus[report.Status]++
		if report.Kind == domain.KindMaintenance {
			stats.Maintenances++
			continue
		}
		stats.Incidents++
		if report.Severity != "" {
			stats.BySeverity[report.Severity]++
		}
		if report.Closed() {
			stats.ResolvedIncidents++
			if report.ResolutionTime > 0 && report.StartTime > 0 {
				resolutionTotal += report.ResolutionTime - report.StartTime
				resolutionCount++
			}
		} else {
			stats.ActiveIncidents++
		}
	}
	if resolutionCount > 0 {
		avg := time.Duration(resolutionTotal/resolutionCount) * time.Second
		start := time.Unix(0, 0)
		stats.AvgResolutionDuration = domain.FormatDuration(start, start.Add(avg))
	}
	return stats, nil
}

// Reconcile cross-checks local records against the status channel: active
// incidents that lost their pin are re-pinned, and bot-authored report
// messages with no local record get a minimal placeholder. Best effort:
// detection is marker-based and the history window is limited.
func (s *StatusService) Reconcile(ctx context.Context) error {
	reports, err := s.store.All()
	if err != nil {
		return err
	}

	pinned, err := s.pinner.PinnedMessages(ctx, s.channelID)
	if err != nil {
		s.logger.Warn("reconcile: unable to list pinned messages", zap.Error(err))
		pinned = nil
	}
	pinnedIDs := make(map[string]bool, len(pinned))
	for _, msg := range pinned {
		pinnedIDs[msg.ID] = true
	}

	known := make(map[string]bool, len(reports))
	for _, report := range reports {
		known[report.ID] = true
		if report.Incident() && report.ShouldBePinned() && !pinnedIDs[report.ID] {
			if err := s.pinner.PinMessage(ctx, s.channelID, report.ID); err != nil {
				s.logger.Warn("reconcile: re-pin failed", zap.String("id", report.ID), zap.Error(err))
			}
		}
	}

	history, err := s.pinner.RecentMessages(ctx, s.channelID, reconcileHistoryLimit)
	if err != nil {
		s.logger.Warn("reconcile: unable to fetch channel history", zap.Error(err))
		return nil
	}
	botID := s.messenger.BotUserID()
	for _, msg := range history {
		if msg.AuthorID != botID || known[msg.ID] {
			continue
		}
		kind, ok := detectReportKind(msg.Content)
		if !ok {
			continue
		}
		placeholder := s.placeholderFor(msg, kind)
		if err := s.store.Save(placeholder); err != nil {
			s.logger.Warn("reconcile: unable to store placeholder", zap.String("id", msg.ID), zap.Error(err))
			continue
		}
		s.logger.Info("reconcile: synthesized placeholder record",
			zap.String("id", msg.ID), zap.String("kind", string(kind)))
	}
	return nil
}

// RefreshActive re-renders every non-terminal incident display so relative
// timestamp markup stays current. Per-record failures are skipped.
func (s *StatusService) RefreshActive(ctx context.Context) {
	reports, err := s.store.All()
	if err != nil {
		s.logger.Warn("refresh: store unavailable", zap.Error(err))
		return
	}
	for _, report := range reports {
		if !report.Incident() || report.Closed() {
			continue
		}
		if err := s.messenger.EditBlocks(ctx, s.channelID, report.ID, render.Report(report)); err != nil {
			s.logger.Warn("refresh: edit failed", zap.String("id", report.ID), zap.Error(err))
		}
	}
}

func (s *StatusService) persistAndRender(ctx context.Context, report *domain.StatusReport) error {
	if err := s.store.Save(report); err != nil {
		return err
	}
	if err := s.messenger.EditBlocks(ctx, s.channelID, report.ID, render.Report(report)); err != nil {
		// The record is updated; the display catches up on the next edit.
		s.logger.Warn("message edit failed after store write", zap.String("id", report.ID), zap.Error(err))
	}
	return nil
}

// syncPin releases or restores the incident pin when the status crossed the
// terminal boundary. Transitions among non-terminal statuses leave the pin
// untouched.
func (s *StatusService) syncPin(ctx context.Context, report *domain.StatusReport, oldStatus domain.ReportStatus) {
	if !report.Incident() {
		return
	}
	wasPinned := !domain.Terminal(report.Kind, oldStatus)
	shouldPin := report.ShouldBePinned()
	if wasPinned == shouldPin {
		return
	}
	var err error
	if shouldPin {
		err = s.pinner.PinMessage(ctx, s.channelID, report.ID)
	} else {
		err = s.pinner.UnpinMessage(ctx, s.channelID, report.ID)
	}
	if err != nil {
		s.logger.Warn("pin sync failed", zap.String("id", report.ID), zap.Error(err))
	}
}

func (s *StatusService) placeholderFor(msg platform.Message, kind domain.ReportKind) *domain.StatusReport {
	now := s.now()
	report := &domain.StatusReport{
		ID:       msg.ID,
		Kind:     kind,
		Title:    "Recovered report",
		Services: "Unknown",
		StatusID: statusID(kind, now),
		Updates:  []domain.Update{},
		Synced:   true,
	}
	if kind == domain.KindMaintenance {
		report.Status = domain.StatusScheduled
		report.ScheduledTime = now.Unix()
	} else {
		report.Status = domain.StatusInvestigating
		report.StartTime = now.Unix()
	}
	return report
}

func (s *StatusService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *StatusService) publishStatusChange(ctx context.Context, actor string, report *domain.StatusReport, oldStatus domain.ReportStatus) {
	s.publish(ctx, events.Event{
		Type:      events.EventReportStatusChanged,
		SubjectID: report.ID,
		Actor:     actor,
		Payload:   events.ReportStatusChangedPayload{OldStatus: oldStatus, NewStatus: report.Status},
	})
}

// detectReportKind recognizes bot-rendered report messages by their fixed
// type field.
func detectReportKind(content string) (domain.ReportKind, bool) {
	switch {
	case strings.Contains(content, "**Type:** `Incident`"):
		return domain.KindIncident, true
	case strings.Contains(content, "**Type:** `Maintenance`"):
		return domain.KindMaintenance, true
	}
	return "", false
}

// statusID builds the human-readable correlation code: kind prefix, date,
// and the last six digits of the creation clock. Collision odds are
// accepted as practical.
func statusID(kind domain.ReportKind, t time.Time) string {
	prefix := "INC"
	if kind == domain.KindMaintenance {
		prefix = "MNT"
	}
	return fmt.Sprintf("%s-%s-%06d", prefix, t.Format("20060102"), t.UnixNano()%1_000_000)
}
