package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loopworks/loopworks/internal/orgrbac"
	"github.com/loopworks/loopworks/internal/shared"
)

// Repository loads user accounts and tracks server-side session records.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, userAgent string) error
	DeleteSession(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findUser(ctx, `SELECT id, email, name, password_hash, global_role, subscription_tier, is_active, created_at FROM users WHERE email = $1`, email)
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findUser(ctx, `SELECT id, email, name, password_hash, global_role, subscription_tier, is_active, created_at FROM users WHERE id = $1`, id)
}

func (r *repository) findUser(ctx context.Context, query string, arg any) (*User, error) {
	var (
		user    User
		role    string
		tier    string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&role, &tier, &user.IsActive, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	// Unknown roles from the database resolve to the empty role, which
	// every permission check treats as "no role".
	if parsed, ok := orgrbac.ParseGlobalRole(role); ok {
		user.GlobalRole = parsed
	}
	user.Tier = SubscriptionTier(tier)

	rows, err := r.pool.Query(ctx, `SELECT organization_id, role FROM organization_members WHERE user_id = $1 ORDER BY created_at`, user.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orgID   string
			rawRole string
		)
		if err := rows.Scan(&orgID, &rawRole); err != nil {
			return nil, err
		}
		membership := Membership{OrgID: orgID}
		if parsed, ok := orgrbac.ParseOrgRole(rawRole); ok {
			membership.Role = parsed
		}
		user.Memberships = append(user.Memberships, membership)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, userAgent string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sessions (id, user_id, expires_at, ip, user_agent) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO UPDATE SET expires_at = EXCLUDED.expires_at`, id, userID, expiresAt, ip, userAgent)
	return err
}

func (r *repository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
