// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/wingconfig/internal/platform/database/schema"
	"github.com/taibuivan/wingconfig/internal/platform/dberr"
	"github.com/taibuivan/wingconfig/internal/platform/postgres"
)

// # PostgreSQL Store

// PostgresCredentialStore implements [CredentialStore] on the users schema.
//
// # Concurrency
//
// Each mutation is one UPDATE statement guarded in its WHERE clause. The row
// lock taken by UPDATE, together with READ COMMITTED re-evaluation of the
// guard, makes concurrent attempts on the same principal serialize without
// lost updates.
type PostgresCredentialStore struct {
	pool *pgxpool.Pool
}

// NewCredentialStore creates a new PostgreSQL implementation of the CredentialStore.
func NewCredentialStore(pool *pgxpool.Pool) *PostgresCredentialStore {
	return &PostgresCredentialStore{pool: pool}
}

// queryer is satisfied by both the pool and a transaction.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

/*
FindByEmail retrieves a live principal by normalized email.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *Principal: Hydrated entity, roles and permissions included
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresCredentialStore) FindByEmail(context context.Context, email string) (*Principal, error) {
	return repository.findOne(context, schema.UserAccount.Email, NormalizeEmail(email))
}

/*
FindByID retrieves a live principal by ID.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *Principal: Hydrated entity, roles and permissions included
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresCredentialStore) FindByID(context context.Context, id string) (*Principal, error) {
	return repository.findOne(context, schema.UserAccount.ID, id)
}

func (repository *PostgresCredentialStore) findOne(context context.Context, column, value string) (*Principal, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, COALESCE(%s, ''), %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.ID, schema.UserAccount.Email, schema.UserAccount.PasswordHash,
		schema.UserAccount.FullName, schema.UserAccount.Phone, schema.UserAccount.Status,
		schema.UserAccount.FailedLoginAttempts, schema.UserAccount.LockedUntil,
		schema.UserAccount.RefreshToken, schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.Table,
		column, schema.UserAccount.DeletedAt,
	)

	principal := &Principal{}
	err := repository.pool.QueryRow(context, query, value).Scan(
		&principal.ID,
		&principal.Email,
		&principal.PasswordHash,
		&principal.FullName,
		&principal.Phone,
		&principal.Status,
		&principal.FailedLoginAttempts,
		&principal.LockedUntil,
		&principal.RefreshToken,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_principal")
	}

	roles, err := loadRoles(context, repository.pool, principal.ID)
	if err != nil {
		return nil, err
	}
	principal.Roles = roles

	return principal, nil
}

// loadRoles fetches the roles of a principal with their permissions in one query.
func loadRoles(context context.Context, db queryer, principalID string) ([]Role, error) {
	query := fmt.Sprintf(`
		SELECT r.%s, r.%s, r.%s, p.%s, p.%s, p.%s, p.%s
		FROM %s ar
		JOIN %s r ON r.%s = ar.%s
		LEFT JOIN %s rp ON rp.%s = r.%s
		LEFT JOIN %s p ON p.%s = rp.%s
		WHERE ar.%s = $1
		ORDER BY r.%s, p.%s`,
		schema.UserRole.ID, schema.UserRole.Name, schema.UserRole.Status,
		schema.UserPermission.ID, schema.UserPermission.Name, schema.UserPermission.Module, schema.UserPermission.Description,
		schema.UserAccountRole.Table,
		schema.UserRole.Table, schema.UserRole.ID, schema.UserAccountRole.RoleID,
		schema.UserRolePermission.Table, schema.UserRolePermission.RoleID, schema.UserRole.ID,
		schema.UserPermission.Table, schema.UserPermission.ID, schema.UserRolePermission.PermissionID,
		schema.UserAccountRole.AccountID,
		schema.UserRole.Name, schema.UserPermission.Name,
	)

	rows, err := db.Query(context, query, principalID)
	if err != nil {
		return nil, dberr.Wrap(err, "load_roles")
	}
	defer rows.Close()

	roles := []Role{}
	for rows.Next() {
		var (
			role                                     Role
			permissionID, name, module, description *string
		)
		if err := rows.Scan(&role.ID, &role.Name, &role.Status, &permissionID, &name, &module, &description); err != nil {
			return nil, dberr.Wrap(err, "scan_role")
		}

		// Rows arrive grouped by role; start a new role when the id changes.
		if len(roles) == 0 || roles[len(roles)-1].ID != role.ID {
			role.Permissions = []Permission{}
			roles = append(roles, role)
		}

		if permissionID != nil {
			current := &roles[len(roles)-1]
			current.Permissions = append(current.Permissions, Permission{
				ID:          *permissionID,
				Name:        deref(name),
				Module:      deref(module),
				Description: deref(description),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "iterate_roles")
	}

	return roles, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

/*
RecordFailedLogin increments the counter and locks the principal in one statement.

The SET expressions all read the pre-update row, so "failedloginattempts + 1"
is the new count in every branch. A lock in force at $4 freezes the row.
*/
func (repository *PostgresCredentialStore) RecordFailedLogin(context context.Context, id string, threshold int, lockUntil, now time.Time) (FailedLoginResult, error) {
	query := fmt.Sprintf(`
		UPDATE %[1]s SET
			%[2]s = CASE WHEN %[3]s > $4 THEN %[2]s ELSE %[2]s + 1 END,
			%[3]s = CASE WHEN %[3]s > $4 THEN %[3]s
				WHEN %[2]s + 1 >= $2 AND %[4]s <> '%[7]s' THEN $3 ELSE %[3]s END,
			%[4]s = CASE WHEN %[3]s > $4 THEN %[4]s
				WHEN %[2]s + 1 >= $2 AND %[4]s <> '%[7]s' THEN '%[8]s' ELSE %[4]s END,
			%[5]s = now()
		WHERE %[6]s = $1 AND %[9]s IS NULL
		RETURNING %[2]s, %[3]s`,
		schema.UserAccount.Table,
		schema.UserAccount.FailedLoginAttempts,
		schema.UserAccount.LockedUntil,
		schema.UserAccount.Status,
		schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
		StatusInactive,
		StatusLocked,
		schema.UserAccount.DeletedAt,
	)

	var result FailedLoginResult
	err := repository.pool.QueryRow(context, query, id, threshold, lockUntil, now).Scan(&result.Attempts, &result.LockedUntil)
	if err != nil {
		return FailedLoginResult{}, dberr.Wrap(err, "record_failed_login")
	}

	return result, nil
}

/*
CompleteLogin resets the lockout state and stores the new refresh token.

The guard re-checks lock and status on the locked row, so a lock written by a
concurrent failure between the read and this statement is not overwritten.
*/
func (repository *PostgresCredentialStore) CompleteLogin(context context.Context, id, refreshToken string, now time.Time) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %[1]s SET
			%[2]s = 0,
			%[3]s = NULL,
			%[4]s = '%[8]s',
			%[5]s = $2,
			%[6]s = now()
		WHERE %[7]s = $1
			AND %[10]s IS NULL
			AND %[4]s <> '%[9]s'
			AND (%[3]s IS NULL OR %[3]s <= $3)`,
		schema.UserAccount.Table,
		schema.UserAccount.FailedLoginAttempts,
		schema.UserAccount.LockedUntil,
		schema.UserAccount.Status,
		schema.UserAccount.RefreshToken,
		schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
		StatusActive,
		StatusInactive,
		schema.UserAccount.DeletedAt,
	)

	tag, err := repository.pool.Exec(context, query, id, refreshToken, now)
	if err != nil {
		return false, dberr.Wrap(err, "complete_login")
	}

	return tag.RowsAffected() == 1, nil
}

/*
RotateRefreshToken swaps the stored refresh token only if it still equals presented.
*/
func (repository *PostgresCredentialStore) RotateRefreshToken(context context.Context, id, presented, next string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $3, %s = now()
		WHERE %s = $1 AND %s = $2 AND %s IS NULL`,
		schema.UserAccount.Table,
		schema.UserAccount.RefreshToken, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.RefreshToken, schema.UserAccount.DeletedAt,
	)

	tag, err := repository.pool.Exec(context, query, id, presented, next)
	if err != nil {
		return false, dberr.Wrap(err, "rotate_refresh_token")
	}

	return tag.RowsAffected() == 1, nil
}

/*
ClearRefreshToken sets the stored refresh token to NULL.
*/
func (repository *PostgresCredentialStore) ClearRefreshToken(context context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = NULL, %s = now()
		WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table,
		schema.UserAccount.RefreshToken, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "clear_refresh_token")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

// # Provisioning

// ProvisionInput describes a principal created or refreshed by the bootstrap command.
type ProvisionInput struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	RoleName     string
}

/*
Provision creates the principal (or updates the password and name of the live
principal with the same email), activates it and assigns the named role, in
one transaction.

Returns:
  - string: ID of the created or updated principal
  - error: dberr.ErrNotFound when the role does not exist, or database errors
*/
func (repository *PostgresCredentialStore) Provision(context context.Context, input ProvisionInput) (string, error) {
	var principalID string

	err := postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		var roleID string
		roleQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
			schema.UserRole.ID, schema.UserRole.Table, schema.UserRole.Name)
		if err := tx.QueryRow(context, roleQuery, input.RoleName).Scan(&roleID); err != nil {
			return dberr.Wrap(err, "find_role")
		}

		upsertQuery := fmt.Sprintf(`
			INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s, %[5]s, %[6]s, %[7]s, %[8]s, %[9]s, %[10]s)
			VALUES ($1, $2, $3, $4, '%[12]s', 0, NULL, now(), now())
			ON CONFLICT (%[3]s) WHERE %[11]s IS NULL DO UPDATE SET
				%[4]s = EXCLUDED.%[4]s,
				%[5]s = EXCLUDED.%[5]s,
				%[6]s = EXCLUDED.%[6]s,
				%[7]s = 0,
				%[8]s = NULL,
				%[10]s = now()
			RETURNING %[2]s`,
			schema.UserAccount.Table,
			schema.UserAccount.ID,
			schema.UserAccount.Email,
			schema.UserAccount.PasswordHash,
			schema.UserAccount.FullName,
			schema.UserAccount.Status,
			schema.UserAccount.FailedLoginAttempts,
			schema.UserAccount.LockedUntil,
			schema.UserAccount.CreatedAt,
			schema.UserAccount.UpdatedAt,
			schema.UserAccount.DeletedAt,
			StatusActive,
		)
		err := tx.QueryRow(context, upsertQuery,
			input.ID, NormalizeEmail(input.Email), input.PasswordHash, input.FullName,
		).Scan(&principalID)
		if err != nil {
			return dberr.Wrap(err, "upsert_principal")
		}

		assignQuery := fmt.Sprintf(`
			INSERT INTO %s (%s, %s) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			schema.UserAccountRole.Table, schema.UserAccountRole.AccountID, schema.UserAccountRole.RoleID,
		)
		if _, err := tx.Exec(context, assignQuery, principalID, roleID); err != nil {
			return dberr.Wrap(err, "assign_role")
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return principalID, nil
}
