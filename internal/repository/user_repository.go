package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/admin-service/internal/domain"
)

// UserRepository defines the read/write surface the auth core needs for
// accounts. Lookups load the user's roles in the same call; everything else
// about users is owned by the user-management collaborator.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByAccount(ctx context.Context, account string) (*domain.User, error)
	GetByPublicIDWithRoles(ctx context.Context, publicID string) (*domain.User, error)
	StampLogin(ctx context.Context, id int64, ip string, at time.Time) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `
        id, public_id, name, account, email, password, status,
        avatar, sex, login_ip, login_date, create_time, update_time`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO sys_user (public_id, name, account, email, password, status, avatar, sex, login_ip)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, create_time, update_time`

	return r.pool.QueryRow(ctx, query,
		user.PublicID,
		user.Name,
		user.Account,
		user.Email,
		user.PasswordHash,
		user.Status,
		user.Avatar,
		user.Sex,
		user.LoginIP,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByAccount(ctx context.Context, account string) (*domain.User, error) {
	const query = `
        SELECT` + userColumns + `
        FROM sys_user WHERE account=$1 AND deleted_at IS NULL`

	return r.getOne(ctx, query, account)
}

func (r *userRepository) GetByPublicIDWithRoles(ctx context.Context, publicID string) (*domain.User, error) {
	const query = `
        SELECT` + userColumns + `
        FROM sys_user WHERE public_id=$1 AND deleted_at IS NULL`

	return r.getOne(ctx, query, publicID)
}

func (r *userRepository) StampLogin(ctx context.Context, id int64, ip string, at time.Time) error {
	const query = `
        UPDATE sys_user SET login_ip=$1, login_date=$2, update_time=NOW()
        WHERE id=$3 AND deleted_at IS NULL`

	cmd, err := r.pool.Exec(ctx, query, ip, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.PublicID,
		&user.Name,
		&user.Account,
		&user.Email,
		&user.PasswordHash,
		&user.Status,
		&user.Avatar,
		&user.Sex,
		&user.LoginIP,
		&user.LoginDate,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	roles, err := r.rolesOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return &user, nil
}

func (r *userRepository) rolesOf(ctx context.Context, userID int64) ([]domain.Role, error) {
	const query = `
        SELECT r.id, r.public_id, r.name, r.role_key, r.sort_order, r.status, r.create_time, r.update_time
        FROM sys_role r
        INNER JOIN sys_user_role ur ON ur.role_id = r.id
        WHERE ur.user_id = $1 AND r.deleted_at IS NULL
        ORDER BY r.sort_order, r.id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(
			&role.ID,
			&role.PublicID,
			&role.Name,
			&role.RoleKey,
			&role.SortOrder,
			&role.Status,
			&role.CreatedAt,
			&role.UpdatedAt,
		); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
