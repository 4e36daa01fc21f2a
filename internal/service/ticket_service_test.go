package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moddy-app/moddysystems/internal/domain"
	"github.com/moddy-app/moddysystems/internal/permission"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.tickets[ticket.ThreadID] = ticket
	return nil
}

func (r *fakeTicketRepo) Get(ctx context.Context, threadID string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[threadID]
	if !ok {
		return nil, util.NewNotFound("ticket", map[string]any{"thread_id": threadID})
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) Claim(ctx context.Context, threadID, staffID string) error {
	r.tickets[threadID].ClaimedBy = &staffID
	return nil
}

func (r *fakeTicketRepo) Unclaim(ctx context.Context, threadID string) error {
	r.tickets[threadID].ClaimedBy = nil
	return nil
}

func (r *fakeTicketRepo) Archive(ctx context.Context, threadID string) error {
	now := time.Now()
	r.tickets[threadID].Archived = true
	r.tickets[threadID].ArchivedAt = &now
	return nil
}

func (r *fakeTicketRepo) ListOpen(ctx context.Context, limit int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range r.tickets {
		if !t.Archived {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeModdyRepo struct {
	staff      map[string]*domain.StaffMember
	errors     map[string]*domain.ErrorRecord
	cases      map[string][]domain.ModerationCase
	guildCases map[string][]domain.ModerationCase
}

func newFakeModdyRepo() *fakeModdyRepo {
	return &fakeModdyRepo{
		staff:      map[string]*domain.StaffMember{},
		errors:     map[string]*domain.ErrorRecord{},
		cases:      map[string][]domain.ModerationCase{},
		guildCases: map[string][]domain.ModerationCase{},
	}
}

func (r *fakeModdyRepo) GetStaff(ctx context.Context, userID string) (*domain.StaffMember, error) {
	member, ok := r.staff[userID]
	if !ok {
		return nil, util.NewNotFound("staff member", nil)
	}
	return member, nil
}

func (r *fakeModdyRepo) GetError(ctx context.Context, code string) (*domain.ErrorRecord, error) {
	record, ok := r.errors[code]
	if !ok {
		return nil, util.NewNotFound("error record", nil)
	}
	return record, nil
}

func (r *fakeModdyRepo) OpenUserCases(ctx context.Context, userID string) ([]domain.ModerationCase, error) {
	return r.cases[userID], nil
}

func (r *fakeModdyRepo) OpenGuildCases(ctx context.Context, guildID string) ([]domain.ModerationCase, error) {
	return r.guildCases[guildID], nil
}

func newTestTicketService(t *testing.T) (*TicketService, *fakeTicketRepo, *fakeModdyRepo) {
	t.Helper()
	tickets := newFakeTicketRepo()
	moddy := newFakeModdyRepo()
	svc := NewTicketService(tickets, moddy, permission.NewResolver(nil), nil, zap.NewNop())
	return svc, tickets, moddy
}

func seedTicket(repo *fakeTicketRepo, category domain.TicketCategory) *domain.Ticket {
	ticket := &domain.Ticket{
		ThreadID:  "thread-1",
		UserID:    "opener-1",
		Category:  category,
		CreatedAt: time.Now(),
	}
	repo.tickets[ticket.ThreadID] = ticket
	return ticket
}

func TestClaimRequiresCategoryRole(t *testing.T) {
	svc, repo, _ := newTestTicketService(t)
	seedTicket(repo, domain.CategoryBugReport)
	ctx := context.Background()

	_, err := svc.Claim(ctx, "thread-1", "staff-1", []string{"Support"})
	assert.True(t, util.IsCode(err, util.CodePermissionDenied))

	ticket, err := svc.Claim(ctx, "thread-1", "staff-1", []string{"Dev"})
	require.NoError(t, err)
	require.NotNil(t, ticket.ClaimedBy)
	assert.Equal(t, "staff-1", *ticket.ClaimedBy)
}

func TestClaimRejectsAlreadyClaimed(t *testing.T) {
	svc, repo, _ := newTestTicketService(t)
	ticket := seedTicket(repo, domain.CategorySupport)
	claimant := "staff-1"
	ticket.ClaimedBy = &claimant

	_, err := svc.Claim(context.Background(), "thread-1", "staff-2", []string{"Support"})
	assert.True(t, util.IsCode(err, util.CodeValidation))
	assert.Contains(t, err.Error(), "staff-1")
}

func TestUnclaimOnlyByClaimantOrElevated(t *testing.T) {
	svc, repo, _ := newTestTicketService(t)
	ticket := seedTicket(repo, domain.CategorySupport)
	claimant := "staff-1"
	ticket.ClaimedBy = &claimant
	ctx := context.Background()

	// Another support agent may not release the claim.
	_, err := svc.Unclaim(ctx, "thread-1", "staff-2", []string{"Support"})
	assert.True(t, util.IsCode(err, util.CodePermissionDenied))
	require.NotNil(t, repo.tickets["thread-1"].ClaimedBy)

	// A manager may.
	released, err := svc.Unclaim(ctx, "thread-1", "staff-2", []string{"Manager"})
	require.NoError(t, err)
	assert.Nil(t, released.ClaimedBy)
}

func TestUnclaimByClaimant(t *testing.T) {
	svc, repo, _ := newTestTicketService(t)
	ticket := seedTicket(repo, domain.CategorySupport)
	claimant := "staff-1"
	ticket.ClaimedBy = &claimant

	released, err := svc.Unclaim(context.Background(), "thread-1", "staff-1", []string{"Support"})
	require.NoError(t, err)
	assert.Nil(t, released.ClaimedBy)
}

func TestArchivePermissions(t *testing.T) {
	svc, repo, _ := newTestTicketService(t)
	seedTicket(repo, domain.CategoryLegalRequest)
	ctx := context.Background()

	_, err := svc.Archive(ctx, "thread-1", "staff-1", []string{"Support"})
	assert.True(t, util.IsCode(err, util.CodePermissionDenied))

	ticket, err := svc.Archive(ctx, "thread-1", "staff-1", []string{"Manager"})
	require.NoError(t, err)
	assert.True(t, ticket.Archived)

	_, err = svc.Archive(ctx, "thread-1", "staff-1", []string{"Manager"})
	assert.True(t, util.IsCode(err, util.CodeValidation))
}

func TestArchiveByOpenerChecksIdentity(t *testing.T) {
	svc, repo, _ := newTestTicketService(t)
	seedTicket(repo, domain.CategorySupport)
	ctx := context.Background()

	_, err := svc.ArchiveByOpener(ctx, "thread-1", "someone-else")
	assert.True(t, util.IsCode(err, util.CodePermissionDenied))

	ticket, err := svc.ArchiveByOpener(ctx, "thread-1", "opener-1")
	require.NoError(t, err)
	assert.True(t, ticket.Archived)
}

func TestLookupErrorValidatesCodeShape(t *testing.T) {
	svc, _, moddy := newTestTicketService(t)
	moddy.errors["AB12CD34"] = &domain.ErrorRecord{Code: "AB12CD34", Command: "ban"}
	ctx := context.Background()

	_, err := svc.LookupError(ctx, "short")
	assert.True(t, util.IsCode(err, util.CodeValidation))
	_, err = svc.LookupError(ctx, "ab12cd34")
	assert.True(t, util.IsCode(err, util.CodeValidation))

	record, err := svc.LookupError(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, "ban", record.Command)

	_, err = svc.LookupError(ctx, "ZZ99ZZ99")
	assert.True(t, util.IsCode(err, util.CodeNotFound))
}

func TestStaffLookupAbsorbsAbsence(t *testing.T) {
	svc, _, moddy := newTestTicketService(t)
	ctx := context.Background()

	assert.Nil(t, svc.Staff(ctx, "nobody"))

	moddy.staff["staff-1"] = &domain.StaffMember{UserID: "staff-1", Roles: []string{"Manager"}}
	member := svc.Staff(ctx, "staff-1")
	require.NotNil(t, member)
	assert.True(t, member.Elevated())
}

func TestOpenCasesByEntity(t *testing.T) {
	svc, _, moddy := newTestTicketService(t)
	ctx := context.Background()

	moddy.cases["user-1"] = []domain.ModerationCase{{CaseID: "C-1", SanctionType: "ban"}}
	moddy.guildCases["guild-1"] = []domain.ModerationCase{{CaseID: "C-2", SanctionType: "blacklist"}}

	userCases := svc.OpenCases(ctx, "user-1")
	require.Len(t, userCases, 1)
	assert.Equal(t, "C-1", userCases[0].CaseID)

	guildCases := svc.OpenGuildCases(ctx, "guild-1")
	require.Len(t, guildCases, 1)
	assert.Equal(t, "C-2", guildCases[0].CaseID)

	assert.Empty(t, svc.OpenCases(ctx, "nobody"))
	assert.Empty(t, svc.OpenGuildCases(ctx, "nowhere"))
}
