package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moddy-app/moddysystems/internal/domain"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

// ErrNoStore marks operations attempted without a configured ticket store.
var ErrNoStore = errors.New("ticket store not configured")

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Get(ctx context.Context, threadID string) (*domain.Ticket, error)
	Claim(ctx context.Context, threadID, staffID string) error
	Unclaim(ctx context.Context, threadID string) error
	Archive(ctx context.Context, threadID string) error
	ListOpen(ctx context.Context, limit int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository. A nil pool yields a
// repository whose every call reports the store as unavailable.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if r.pool == nil {
		return util.NewStoreUnavailable(ErrNoStore)
	}
	const query = `
        INSERT INTO tickets (thread_id, user_id, category, metadata)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`
	metadata := ticket.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	if err := r.pool.QueryRow(ctx, query,
		ticket.ThreadID,
		ticket.UserID,
		ticket.Category,
		metadata,
	).Scan(&ticket.CreatedAt); err != nil {
		return util.NewStoreUnavailable(err)
	}
	return nil
}

func (r *ticketRepository) Get(ctx context.Context, threadID string) (*domain.Ticket, error) {
	if r.pool == nil {
		return nil, util.NewStoreUnavailable(ErrNoStore)
	}
	const query = `
        SELECT thread_id, user_id, category, claimed_by, created_at, archived, archived_at, metadata
        FROM tickets WHERE thread_id=$1`

	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, threadID).Scan(
		&ticket.ThreadID,
		&ticket.UserID,
		&ticket.Category,
		&ticket.ClaimedBy,
		&ticket.CreatedAt,
		&ticket.Archived,
		&ticket.ArchivedAt,
		&ticket.Metadata,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"thread_id": threadID})
		}
		return nil, util.NewStoreUnavailable(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) Claim(ctx context.Context, threadID, staffID string) error {
	return r.exec(ctx, "UPDATE tickets SET claimed_by=$1 WHERE thread_id=$2", staffID, threadID)
}

func (r *ticketRepository) Unclaim(ctx context.Context, threadID string) error {
	return r.exec(ctx, "UPDATE tickets SET claimed_by=NULL WHERE thread_id=$1", threadID)
}

func (r *ticketRepository) Archive(ctx context.Context, threadID string) error {
	return r.exec(ctx, "UPDATE tickets SET archived=TRUE, archived_at=NOW() WHERE thread_id=$1", threadID)
}

func (r *ticketRepository) ListOpen(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if r.pool == nil {
		return nil, util.NewStoreUnavailable(ErrNoStore)
	}
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT thread_id, user_id, category, claimed_by, created_at, archived, archived_at, metadata
        FROM tickets WHERE archived=FALSE ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, util.NewStoreUnavailable(err)
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ThreadID,
			&ticket.UserID,
			&ticket.Category,
			&ticket.ClaimedBy,
			&ticket.CreatedAt,
			&ticket.Archived,
			&ticket.ArchivedAt,
			&ticket.Metadata,
		); err != nil {
			return nil, util.NewStoreUnavailable(err)
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) exec(ctx context.Context, query string, args ...any) error {
	if r.pool == nil {
		return util.NewStoreUnavailable(ErrNoStore)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return util.NewStoreUnavailable(err)
	}
	return nil
}
