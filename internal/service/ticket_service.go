package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/moddy-app/moddysystems/internal/domain"
	"github.com/moddy-app/moddysystems/internal/events"
	"github.com/moddy-app/moddysystems/internal/permission"
	"github.com/moddy-app/moddysystems/internal/repository"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

var errCodePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// TicketService tracks support tickets around their thread lifecycle. The
// chat layer creates the actual threads; this service only decides and
// records. Tracking is best effort: a failed store write never blocks the
// thread the user already got.
type TicketService struct {
	tickets  repository.TicketRepository
	moddy    repository.ModdyRepository
	resolver *permission.Resolver
	events   events.Dispatcher
	logger   *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, moddy repository.ModdyRepository, resolver *permission.Resolver, dispatcher events.Dispatcher, logger *zap.Logger) *TicketService {
	return &TicketService{
		tickets:  tickets,
		moddy:    moddy,
		resolver: resolver,
		events:   dispatcher,
		logger:   logger,
	}
}

// Track records a newly created ticket thread. Store failures are logged
// and swallowed.
func (s *TicketService) Track(ctx context.Context, ticket *domain.Ticket) {
	if !ticket.Category.Valid() {
		s.logger.Warn("refusing to track ticket with unknown category",
			zap.String("thread_id", ticket.ThreadID),
			zap.String("category", string(ticket.Category)))
		return
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.logger.Error("ticket tracking failed",
			zap.String("thread_id", ticket.ThreadID), zap.Error(err))
		return
	}
	s.publish(ctx, events.Event{
		Type:      events.EventTicketCreated,
		SubjectID: ticket.ThreadID,
		Actor:     ticket.UserID,
		Payload: events.TicketCreatedPayload{
			Category: ticket.Category,
			UserID:   ticket.UserID,
		},
	})
}

// Get returns the tracked ticket for a thread.
func (s *TicketService) Get(ctx context.Context, threadID string) (*domain.Ticket, error) {
	return s.tickets.Get(ctx, threadID)
}

// Claim assigns the ticket to a staff member. The claimer must hold a role
// that manages the ticket's category, and an unclaimed ticket is required.
func (s *TicketService) Claim(ctx context.Context, threadID, staffID string, roles []string) (*domain.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !s.resolver.CanManage(roles, ticket.Category) {
		return nil, util.NewPermissionDenied("you cannot manage tickets in this category")
	}
	if ticket.Claimed() {
		return nil, util.NewValidationError(
			fmt.Sprintf("ticket is already claimed by <@%s>", *ticket.ClaimedBy),
			map[string]any{"claimed_by": *ticket.ClaimedBy},
		)
	}
	if err := s.tickets.Claim(ctx, threadID, staffID); err != nil {
		return nil, err
	}
	ticket.ClaimedBy = &staffID

	s.publish(ctx, events.Event{
		Type:      events.EventTicketClaimed,
		SubjectID: threadID,
		Actor:     staffID,
		Payload:   events.TicketClaimPayload{StaffID: staffID},
	})
	return ticket, nil
}

// Unclaim releases a claimed ticket. Only the claimant or an elevated staff
// member may release; anyone else is rejected and the claim stands.
func (s *TicketService) Unclaim(ctx context.Context, threadID, staffID string, roles []string) (*domain.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !ticket.Claimed() {
		return nil, util.NewValidationError("ticket is not claimed", nil)
	}
	if *ticket.ClaimedBy != staffID && !permission.Elevated(roles) {
		return nil, util.NewPermissionDenied("only the claimant or elevated staff may release this ticket")
	}
	if err := s.tickets.Unclaim(ctx, threadID); err != nil {
		return nil, err
	}
	ticket.ClaimedBy = nil

	s.publish(ctx, events.Event{
		Type:      events.EventTicketUnclaimed,
		SubjectID: threadID,
		Actor:     staffID,
		Payload:   events.TicketClaimPayload{StaffID: staffID},
	})
	return ticket, nil
}

// Archive marks the ticket closed. Managing staff for the category may
// archive at any time; the opener goes through the archive request flow in
// the chat layer instead.
func (s *TicketService) Archive(ctx context.Context, threadID, staffID string, roles []string) (*domain.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !s.resolver.CanManage(roles, ticket.Category) {
		return nil, util.NewPermissionDenied("you cannot manage tickets in this category")
	}
	if ticket.Archived {
		return nil, util.NewValidationError("ticket is already archived", nil)
	}
	if err := s.tickets.Archive(ctx, threadID); err != nil {
		return nil, err
	}
	ticket.Archived = true

	s.publish(ctx, events.Event{
		Type:      events.EventTicketArchived,
		SubjectID: threadID,
		Actor:     staffID,
	})
	return ticket, nil
}

// ArchiveByOpener closes a ticket on the opener's own request, bypassing
// the category permission check. The caller must be the opener.
func (s *TicketService) ArchiveByOpener(ctx context.Context, threadID, userID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, util.NewPermissionDenied("only the ticket opener may request this")
	}
	if ticket.Archived {
		return nil, util.NewValidationError("ticket is already archived", nil)
	}
	if err := s.tickets.Archive(ctx, threadID); err != nil {
		return nil, err
	}
	ticket.Archived = true

	s.publish(ctx, events.Event{
		Type:      events.EventTicketArchived,
		SubjectID: threadID,
		Actor:     userID,
	})
	return ticket, nil
}

// CanManage reports whether the role set manages the given category.
func (s *TicketService) CanManage(roles []string, category domain.TicketCategory) bool {
	return s.resolver.CanManage(roles, category)
}

// ListOpen returns the unarchived tickets, newest first.
func (s *TicketService) ListOpen(ctx context.Context, limit int) ([]domain.Ticket, error) {
	return s.tickets.ListOpen(ctx, limit)
}

// LookupError resolves an error code from the platform database for the
// bug report flow. Codes are eight uppercase alphanumerics; anything else
// is rejected before touching the database.
func (s *TicketService) LookupError(ctx context.Context, code string) (*domain.ErrorRecord, error) {
	if !errCodePattern.MatchString(code) {
		return nil, util.NewValidationError("error codes are 8 uppercase letters or digits", nil)
	}
	return s.moddy.GetError(ctx, code)
}

// OpenCases returns the user's open moderation cases for the sanction
// appeal flow. A missing platform database yields an empty list rather
// than blocking the flow.
func (s *TicketService) OpenCases(ctx context.Context, userID string) []domain.ModerationCase {
	cases, err := s.moddy.OpenUserCases(ctx, userID)
	if err != nil {
		s.logger.Warn("moderation case lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return cases
}

// OpenGuildCases returns a server's open moderation cases, for appeals
// filed on behalf of a server rather than the user themselves.
func (s *TicketService) OpenGuildCases(ctx context.Context, guildID string) []domain.ModerationCase {
	cases, err := s.moddy.OpenGuildCases(ctx, guildID)
	if err != nil {
		s.logger.Warn("moderation case lookup failed", zap.String("guild_id", guildID), zap.Error(err))
		return nil
	}
	return cases
}

// Staff fetches the staff record for permission decisions in the chat
// layer. Absence is not an error for callers; they treat nil as no roles.
func (s *TicketService) Staff(ctx context.Context, userID string) *domain.StaffMember {
	member, err := s.moddy.GetStaff(ctx, userID)
	if err != nil {
		if !util.IsCode(err, util.CodeNotFound) {
			s.logger.Warn("staff lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	return member
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	event.Timestamp = time.Now()
	_ = s.events.Publish(ctx, event)
}
