package sqlite

import (
	"context"
	"database/sql"

	"github.com/relaysuite/trustcore/internal/access/domain"
)

type usersRepo struct {
	db *sql.DB
}

const userColumns = `
	u.id, u.tenant_id, u.username, u.email, u.password_hash, u.role,
	u.modules, u.created_at, u.updated_at,
	t.id, t.name, t.modules, t.created_at, t.updated_at`

const userSelect = `
SELECT` + userColumns + `
FROM users u
LEFT JOIN tenants t ON t.id = u.tenant_id`

func (r *usersRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, userSelect+` WHERE u.id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, userSelect+` WHERE u.email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) FindByAPIKey(ctx context.Context, fingerprint string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx, userSelect+`
JOIN api_keys k ON k.user_id = u.id
WHERE k.fingerprint = ?`, fingerprint)

	u, err := scanUser(row)
	if err != nil {
		return domain.Principal{}, err
	}
	return u.Principal(), nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`, hash, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

// CreateTenant inserts a tenant and returns it with its assigned id.
// Provisioning lives outside the core contract but the driver carries it so
// deployments can be seeded.
func (r *usersRepo) CreateTenant(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO tenants (name, modules) VALUES (?, ?)`,
		t.Name, joinModules(t.Modules))
	if err != nil {
		return domain.Tenant{}, err
	}
	t.ID, err = res.LastInsertId()
	return t, err
}

// CreateUser inserts a user and returns it with its assigned id.
func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (tenant_id, username, email, password_hash, role, modules)
VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(u.TenantID), u.Username, u.Email, u.PasswordHash, string(u.Role), joinModules(u.Modules))
	if err != nil {
		return domain.User{}, err
	}
	u.ID, err = res.LastInsertId()
	return u, err
}

// CreateAPIKey binds a key fingerprint to a user.
func (r *usersRepo) CreateAPIKey(ctx context.Context, fingerprint string, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO api_keys (fingerprint, user_id) VALUES (?, ?)`, fingerprint, userID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u          domain.User
		role       string
		modules    string
		tenantID   sql.NullInt64
		tID        sql.NullInt64
		tName      sql.NullString
		tModules   sql.NullString
		tCreatedAt sql.NullTime
		tUpdatedAt sql.NullTime
	)

	err := row.Scan(
		&u.ID, &tenantID, &u.Username, &u.Email, &u.PasswordHash, &role,
		&modules, &u.CreatedAt, &u.UpdatedAt,
		&tID, &tName, &tModules, &tCreatedAt, &tUpdatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err)
	}

	u.Role = domain.Role(role)
	u.Modules = splitModules(modules)
	if tenantID.Valid {
		u.TenantID = tenantID.Int64
	}
	if tID.Valid {
		u.Tenant = &domain.Tenant{
			ID:        tID.Int64,
			Name:      tName.String,
			Modules:   splitModules(tModules.String),
			CreatedAt: tCreatedAt.Time,
			UpdatedAt: tUpdatedAt.Time,
		}
	}
	return &u, nil
}

func nullableID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}
