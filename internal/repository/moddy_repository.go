package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moddy-app/moddysystems/internal/domain"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

// ModdyRepository reads the shared moderation/errors store: staff
// permissions, tracked error codes, and open moderation cases. Read-only.
type ModdyRepository interface {
	GetStaff(ctx context.Context, userID string) (*domain.StaffMember, error)
	GetError(ctx context.Context, code string) (*domain.ErrorRecord, error)
	OpenUserCases(ctx context.Context, userID string) ([]domain.ModerationCase, error)
	OpenGuildCases(ctx context.Context, guildID string) ([]domain.ModerationCase, error)
}

type moddyRepository struct {
	pool *pgxpool.Pool
}

// NewModdyRepository instantiates the repository over the shared store pool.
func NewModdyRepository(pool *pgxpool.Pool) ModdyRepository {
	return &moddyRepository{pool: pool}
}

func (r *moddyRepository) GetStaff(ctx context.Context, userID string) (*domain.StaffMember, error) {
	if r.pool == nil {
		return nil, util.NewStoreUnavailable(ErrNoStore)
	}
	const query = `SELECT user_id, roles FROM staff_permissions WHERE user_id=$1`

	var staff domain.StaffMember
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&staff.UserID, &staff.Roles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("staff member", map[string]any{"user_id": userID})
		}
		return nil, util.NewStoreUnavailable(err)
	}
	return &staff, nil
}

func (r *moddyRepository) GetError(ctx context.Context, code string) (*domain.ErrorRecord, error) {
	if r.pool == nil {
		return nil, util.NewStoreUnavailable(ErrNoStore)
	}
	const query = `
        SELECT error_code, command, user_id, guild_id, file_source, line_number, error_type, timestamp
        FROM errors WHERE error_code=$1`

	var (
		rec domain.ErrorRecord
		ts  *time.Time
	)
	if err := r.pool.QueryRow(ctx, query, code).Scan(
		&rec.Code,
		&rec.Command,
		&rec.UserID,
		&rec.GuildID,
		&rec.FileSource,
		&rec.LineNumber,
		&rec.ErrorType,
		&ts,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("error code", map[string]any{"code": code})
		}
		return nil, util.NewStoreUnavailable(err)
	}
	if ts != nil {
		rec.Timestamp = ts.Unix()
	}
	return &rec, nil
}

func (r *moddyRepository) OpenUserCases(ctx context.Context, userID string) ([]domain.ModerationCase, error) {
	return r.openCases(ctx, "user", userID)
}

func (r *moddyRepository) OpenGuildCases(ctx context.Context, guildID string) ([]domain.ModerationCase, error) {
	return r.openCases(ctx, "guild", guildID)
}

func (r *moddyRepository) openCases(ctx context.Context, entityType, entityID string) ([]domain.ModerationCase, error) {
	if r.pool == nil {
		return nil, util.NewStoreUnavailable(ErrNoStore)
	}
	const query = `
        SELECT case_id, case_type, sanction_type, entity_type, entity_id, status, reason, created_by, created_at
        FROM moderation_cases
        WHERE entity_type=$1 AND entity_id=$2 AND status='open'
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, util.NewStoreUnavailable(err)
	}
	defer rows.Close()

	var cases []domain.ModerationCase
	for rows.Next() {
		var (
			c  domain.ModerationCase
			ts *time.Time
		)
		if err := rows.Scan(
			&c.CaseID,
			&c.CaseType,
			&c.SanctionType,
			&c.EntityType,
			&c.EntityID,
			&c.Status,
			&c.Reason,
			&c.CreatedBy,
			&ts,
		); err != nil {
			return nil, util.NewStoreUnavailable(err)
		}
		if ts != nil {
			c.CreatedAt = ts.Unix()
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
