package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/admin-service/internal/domain"
)

// MenuRepository reads menu grants for permission resolution and the
// caller's navigation tree.
type MenuRepository interface {
	ListEnabledPermsByRoleIDs(ctx context.Context, roleIDs []int64) ([]string, error)
	ListEnabledByRoleIDs(ctx context.Context, roleIDs []int64) ([]domain.Menu, error)
	ListEnabled(ctx context.Context) ([]domain.Menu, error)
}

type menuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a Postgres-backed implementation.
func NewMenuRepository(pool *pgxpool.Pool) MenuRepository {
	return &menuRepository{pool: pool}
}

// ListEnabledPermsByRoleIDs returns the permission strings of enabled, live
// menus granted to any of the roles. Duplicates across roles are collapsed
// by the query.
func (r *menuRepository) ListEnabledPermsByRoleIDs(ctx context.Context, roleIDs []int64) ([]string, error) {
	const query = `
        SELECT DISTINCT m.perms
        FROM sys_menu m
        INNER JOIN sys_role_menu rm ON rm.menu_id = m.id
        WHERE rm.role_id = ANY($1)
          AND m.status = '1'
          AND m.deleted_at IS NULL
          AND m.perms IS NOT NULL`

	rows, err := r.pool.Query(ctx, query, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var perm string
		if err := rows.Scan(&perm); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// ListEnabledByRoleIDs returns the full menu nodes granted to the roles,
// for building the caller's navigation tree.
func (r *menuRepository) ListEnabledByRoleIDs(ctx context.Context, roleIDs []int64) ([]domain.Menu, error) {
	const query = `
        SELECT DISTINCT m.id, m.public_id, m.name, m.parent_id, m.ancestors,
               COALESCE(m.path, ''), COALESCE(m.perms, ''), m.sort_order, m.status,
               m.create_time, m.update_time
        FROM sys_menu m
        INNER JOIN sys_role_menu rm ON rm.menu_id = m.id
        WHERE rm.role_id = ANY($1)
          AND m.status = '1'
          AND m.deleted_at IS NULL
        ORDER BY m.sort_order, m.id`

	rows, err := r.pool.Query(ctx, query, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMenus(rows)
}

// ListEnabled returns every enabled, live menu. Admin callers get the full
// tree without a role join.
func (r *menuRepository) ListEnabled(ctx context.Context) ([]domain.Menu, error) {
	const query = `
        SELECT m.id, m.public_id, m.name, m.parent_id, m.ancestors,
               COALESCE(m.path, ''), COALESCE(m.perms, ''), m.sort_order, m.status,
               m.create_time, m.update_time
        FROM sys_menu m
        WHERE m.status = '1'
          AND m.deleted_at IS NULL
        ORDER BY m.sort_order, m.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMenus(rows)
}

func scanMenus(rows pgx.Rows) ([]domain.Menu, error) {
	var menus []domain.Menu
	for rows.Next() {
		var menu domain.Menu
		if err := rows.Scan(
			&menu.ID,
			&menu.PublicID,
			&menu.Name,
			&menu.ParentID,
			&menu.Ancestors,
			&menu.Path,
			&menu.Perms,
			&menu.SortOrder,
			&menu.Status,
			&menu.CreatedAt,
			&menu.UpdatedAt,
		); err != nil {
			return nil, err
		}
		menus = append(menus, menu)
	}
	return menus, rows.Err()
}
