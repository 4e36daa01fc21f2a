package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/moddy-app/moddysystems/internal/events"
)

// NotificationService mirrors lifecycle events to the operator log and,
// when configured, an external webhook. It never fails the publishing
// operation.
type NotificationService struct {
	logger     *zap.Logger
	webhookURL string
	client     *http.Client
}

// NewNotificationService constructs the service. An empty webhookURL
// disables forwarding.
func NewNotificationService(logger *zap.Logger, webhookURL string) *NotificationService {
	return &NotificationService{
		logger:     logger,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Register subscribes the service to every lifecycle event type.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	types := []events.EventType{
		events.EventTicketCreated,
		events.EventTicketClaimed,
		events.EventTicketUnclaimed,
		events.EventTicketArchived,
		events.EventReportCreated,
		events.EventReportUpdated,
		events.EventReportStatusChanged,
		events.EventReportClosed,
	}
	for _, t := range types {
		dispatcher.Subscribe(t, s.handle)
	}
}

func (s *NotificationService) handle(ctx context.Context, event events.Event) error {
	s.logger.Info("lifecycle event",
		zap.String("type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor", event.Actor))

	if s.webhookURL == "" {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("notification encode failed", zap.Error(err))
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("notification request build failed", zap.Error(err))
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("notification delivery failed", zap.Error(err))
		return nil
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.logger.Warn("notification rejected", zap.Int("status", resp.StatusCode))
	}
	return nil
}
