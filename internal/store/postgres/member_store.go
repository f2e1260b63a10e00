package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// MemberStore implements store.MemberStore using PostgreSQL.
type MemberStore struct {
	b *Backend
}

var _ store.MemberStore = (*MemberStore)(nil)

const memberColumns = `member_id, org_id, full_name, email, phone, birth_date, address, status, notes, created_at, updated_at`

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	err := row.Scan(
		&m.ID,
		&m.OrgID,
		&m.FullName,
		&m.Email,
		&m.Phone,
		&m.BirthDate,
		&m.Address,
		&m.Status,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MemberStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListMembersOptions) ([]*models.Member, error) {
	where := newWhere(orgID)
	if opts.Status != "" {
		where.add("status = ?", string(opts.Status))
	}
	if opts.Search != "" {
		p := likePattern(opts.Search)
		where.add("(full_name ILIKE ? OR email ILIKE ?)", p, p)
	}
	query := `SELECT ` + memberColumns + ` FROM members WHERE org_id = $1` + where.sql() +
		` ORDER BY lower(full_name), member_id` + where.limit(opts.Limit)

	var result []*models.Member
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, where.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanMember(rows)
			if err != nil {
				return fmt.Errorf("failed to scan member: %w", err)
			}
			result = append(result, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapPostgresError(fmt.Errorf("failed to list members: %w", err))
	}
	return result, nil
}

func (s *MemberStore) Get(ctx context.Context, orgID, memberID uuid.UUID) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE org_id = $1 AND member_id = $2`

	var m *models.Member
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) (err error) {
		m, err = scanMember(tx.QueryRow(ctx, query, orgID, memberID))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrMemberNotFound
		}
		return nil, mapPostgresError(fmt.Errorf("failed to get member: %w", err))
	}
	return m, nil
}

func (s *MemberStore) Create(ctx context.Context, member *models.Member) error {
	if member.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate member id: %w", err)
		}
		member.ID = id
	}

	query := `
		INSERT INTO members (
			member_id, org_id, full_name, email, phone, birth_date, address, status, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			member.ID,
			member.OrgID,
			member.FullName,
			member.Email,
			member.Phone,
			member.BirthDate,
			member.Address,
			string(member.Status),
			member.Notes,
		).Scan(&member.CreatedAt, &member.UpdatedAt)
	})
	if err != nil {
		return mapPostgresError(fmt.Errorf("failed to create member: %w", err))
	}

	log.Debug().Str("org_id", member.OrgID.String()).Str("member_id", member.ID.String()).Msg("Created member")
	return nil
}

func (s *MemberStore) Update(ctx context.Context, member *models.Member) error {
	query := `
		UPDATE members SET
			full_name = $3, email = $4, phone = $5, birth_date = $6,
			address = $7, status = $8, notes = $9, updated_at = now()
		WHERE org_id = $1 AND member_id = $2
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			member.OrgID,
			member.ID,
			member.FullName,
			member.Email,
			member.Phone,
			member.BirthDate,
			member.Address,
			string(member.Status),
			member.Notes,
		).Scan(&member.CreatedAt, &member.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrMemberNotFound
		}
		return mapPostgresError(fmt.Errorf("failed to update member: %w", err))
	}
	return nil
}

func (s *MemberStore) Delete(ctx context.Context, orgID, memberID uuid.UUID) error {
	return s.b.deleteRow(ctx, "members", "member_id", orgID, memberID, store.ErrMemberNotFound)
}

func (s *MemberStore) ListMinistries(ctx context.Context, orgID, memberID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT ministry_id FROM member_ministries
		WHERE org_id = $1 AND member_id = $2
		ORDER BY ministry_id
	`

	var ids []uuid.UUID
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, orgID, memberID)
		if err != nil {
			return err
		}
		ids, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		return err
	})
	if err != nil {
		return nil, mapPostgresError(fmt.Errorf("failed to list member ministries: %w", err))
	}
	return ids, nil
}

// ReplaceMinistries deletes the current set and inserts the new one in the same transaction.
func (s *MemberStore) ReplaceMinistries(ctx context.Context, orgID, memberID uuid.UUID, ministryIDs []uuid.UUID) error {
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE org_id = $1 AND member_id = $2)`,
			orgID, memberID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return store.ErrMemberNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM member_ministries WHERE org_id = $1 AND member_id = $2`, orgID, memberID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO member_ministries (org_id, member_id, ministry_id)
			SELECT $1, $2, id FROM unnest($3::uuid[]) AS id
			ON CONFLICT DO NOTHING
		`, orgID, memberID, ministryIDs)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrMemberNotFound) {
			return err
		}
		return mapPostgresError(fmt.Errorf("failed to replace member ministries: %w", err))
	}
	return nil
}

// MinistryStore implements store.MinistryStore using PostgreSQL.
type MinistryStore struct {
	b *Backend
}

var _ store.MinistryStore = (*MinistryStore)(nil)

const ministryColumns = `ministry_id, org_id, name, description, active, created_at, updated_at`

func scanMinistry(row pgx.Row) (*models.Ministry, error) {
	var m models.Ministry
	if err := row.Scan(&m.ID, &m.OrgID, &m.Name, &m.Description, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MinistryStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListMinistriesOptions) ([]*models.Ministry, error) {
	where := newWhere(orgID)
	if opts.ActiveOnly {
		where.add("active")
	}
	if opts.Search != "" {
		where.add("name ILIKE ?", likePattern(opts.Search))
	}
	query := `SELECT ` + ministryColumns + ` FROM ministries WHERE org_id = $1` + where.sql() + ` ORDER BY lower(name), ministry_id`

	var result []*models.Ministry
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, where.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanMinistry(rows)
			if err != nil {
				return fmt.Errorf("failed to scan ministry: %w", err)
			}
			result = append(result, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapPostgresError(fmt.Errorf("failed to list ministries: %w", err))
	}
	return result, nil
}

func (s *MinistryStore) Get(ctx context.Context, orgID, ministryID uuid.UUID) (*models.Ministry, error) {
	query := `SELECT ` + ministryColumns + ` FROM ministries WHERE org_id = $1 AND ministry_id = $2`

	var m *models.Ministry
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) (err error) {
		m, err = scanMinistry(tx.QueryRow(ctx, query, orgID, ministryID))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrMinistryNotFound
		}
		return nil, mapPostgresError(fmt.Errorf("failed to get ministry: %w", err))
	}
	return m, nil
}

func (s *MinistryStore) Create(ctx context.Context, ministry *models.Ministry) error {
	if ministry.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate ministry id: %w", err)
		}
		ministry.ID = id
	}

	query := `
		INSERT INTO ministries (ministry_id, org_id, name, description, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, ministry.ID, ministry.OrgID, ministry.Name, ministry.Description, ministry.Active).
			Scan(&ministry.CreatedAt, &ministry.UpdatedAt)
	})
	if err != nil {
		return mapPostgresError(fmt.Errorf("failed to create ministry: %w", err))
	}
	return nil
}

func (s *MinistryStore) Update(ctx context.Context, ministry *models.Ministry) error {
	query := `
		UPDATE ministries SET name = $3, description = $4, active = $5, updated_at = now()
		WHERE org_id = $1 AND ministry_id = $2
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, ministry.OrgID, ministry.ID, ministry.Name, ministry.Description, ministry.Active).
			Scan(&ministry.CreatedAt, &ministry.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrMinistryNotFound
		}
		return mapPostgresError(fmt.Errorf("failed to update ministry: %w", err))
	}
	return nil
}

func (s *MinistryStore) Delete(ctx context.Context, orgID, ministryID uuid.UUID) error {
	return s.b.deleteRow(ctx, "ministries", "ministry_id", orgID, ministryID, store.ErrMinistryNotFound)
}
