package orgs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loopworks/loopworks/internal/orgrbac"
	"github.com/loopworks/loopworks/internal/platform/db"
	"github.com/loopworks/loopworks/internal/platform/httpx"
	"github.com/loopworks/loopworks/internal/shared"
)

// Repository is the pgx-backed organization store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository bound to the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the organization and its owner membership in one
// transaction.
func (r *Repository) Create(ctx context.Context, name, slug, ownerID string) (Organization, error) {
	var org Organization
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO organizations (id, name, slug, owner_id) VALUES ($1, $2, $3, $4) RETURNING id, name, slug, owner_id, created_at, updated_at`,
			uuid.NewString(), name, slug, ownerID)
		if err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO organization_members (organization_id, user_id, role) VALUES ($1, $2, $3)`,
			org.ID, ownerID, string(orgrbac.OrgOwner))
		return err
	})
	if err != nil {
		return Organization{}, translateConstraint(err)
	}
	return org, nil
}

// Get fetches one organization.
func (r *Repository) Get(ctx context.Context, orgID string) (Organization, error) {
	var org Organization
	err := r.pool.QueryRow(ctx, `SELECT id, name, slug, owner_id, created_at, updated_at FROM organizations WHERE id = $1`, orgID).
		Scan(&org.ID, &org.Name, &org.Slug, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, shared.ErrNotFound
		}
		return Organization{}, err
	}
	return org, nil
}

// Rename updates the organization name.
func (r *Repository) Rename(ctx context.Context, orgID, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE organizations SET name = $2, updated_at = NOW() WHERE id = $1`, orgID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the organization and cascades memberships.
func (r *Repository) Delete(ctx context.Context, orgID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListMembers returns the organization's members with user details.
func (r *Repository) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT m.user_id, u.email, u.name, m.role, m.created_at FROM organization_members m JOIN users u ON u.id = m.user_id WHERE m.organization_id = $1 ORDER BY m.created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.Name, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetMemberRole returns a member's role in the organization.
func (r *Repository) GetMemberRole(ctx context.Context, orgID, userID string) (orgrbac.OrgRole, error) {
	var role orgrbac.OrgRole
	err := r.pool.QueryRow(ctx, `SELECT role FROM organization_members WHERE organization_id = $1 AND user_id = $2`, orgID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return role, nil
}

// AddMember inserts a membership.
func (r *Repository) AddMember(ctx context.Context, orgID, userID string, role orgrbac.OrgRole) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO organization_members (organization_id, user_id, role) VALUES ($1, $2, $3)`, orgID, userID, string(role))
	return translateConstraint(err)
}

// RemoveMember deletes a membership.
func (r *Repository) RemoveMember(ctx context.Context, orgID, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organization_members WHERE organization_id = $1 AND user_id = $2`, orgID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateMemberRole changes a member's role.
func (r *Repository) UpdateMemberRole(ctx context.Context, orgID, userID string, role orgrbac.OrgRole) error {
	tag, err := r.pool.Exec(ctx, `UPDATE organization_members SET role = $3 WHERE organization_id = $1 AND user_id = $2`, orgID, userID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TransferOwnership swaps owner_id and the two owner/admin memberships in
// one transaction.
func (r *Repository) TransferOwnership(ctx context.Context, orgID, fromUserID, toUserID string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE organizations SET owner_id = $2, updated_at = NOW() WHERE id = $1 AND owner_id = $3`, orgID, toUserID, fromUserID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		tag, err = tx.Exec(ctx, `UPDATE organization_members SET role = $3 WHERE organization_id = $1 AND user_id = $2`, orgID, toUserID, string(orgrbac.OrgOwner))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE organization_members SET role = $3 WHERE organization_id = $1 AND user_id = $2`, orgID, fromUserID, string(orgrbac.OrgAdmin))
		return err
	})
}

// CreateInvite records a pending invitation.
func (r *Repository) CreateInvite(ctx context.Context, invite Invite) (Invite, error) {
	if invite.ID == "" {
		invite.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO organization_invites (id, organization_id, email, role, invited_by) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		invite.ID, invite.OrgID, invite.Email, string(invite.Role), invite.InvitedBy)
	if err := row.Scan(&invite.CreatedAt); err != nil {
		return Invite{}, translateConstraint(err)
	}
	return invite, nil
}

// ListOrganizationIDs returns every organization id. Background jobs use
// this to fan out per-tenant work.
func (r *Repository) ListOrganizationIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM organizations ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func translateConstraint(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return httpx.ErrDuplicate
	}
	return err
}
