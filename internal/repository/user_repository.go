package repository

import (
	"context"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

type userRepository struct {
	db pgQuerier
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, phone, department, password_hash, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.Department,
		user.PasswordHash,
		user.Active,
		user.CreatedAt,
	).Scan(&user.ID)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
        SELECT id, name, email, phone, department, password_hash, is_active, created_at, last_login
        FROM users WHERE id=$1`
	return r.fetch(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, phone, department, password_hash, is_active, created_at, last_login
        FROM users WHERE LOWER(email)=LOWER($1)`
	return r.fetch(ctx, query, email)
}

func (r *userRepository) fetch(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Department,
		&user.PasswordHash,
		&user.Active,
		&user.CreatedAt,
		&user.LastLogin,
	); err != nil {
		return nil, pgErr(err)
	}
	return &user, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return requireRow(r.db.Exec(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, id))
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return requireRow(r.db.Exec(ctx, `UPDATE users SET last_login=$1 WHERE id=$2`, at, id))
}

type adminRepository struct {
	db pgQuerier
}

func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	const query = `
        INSERT INTO admins (name, email, password_hash, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`

	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	return r.db.QueryRow(ctx, query,
		admin.Name,
		admin.Email,
		admin.PasswordHash,
		admin.Active,
		admin.CreatedAt,
	).Scan(&admin.ID)
}

const adminColumns = `id, name, email, password_hash, is_active, created_at, last_login`

func (r *adminRepository) GetByID(ctx context.Context, id int64) (*domain.Admin, error) {
	return r.fetch(ctx, `SELECT `+adminColumns+` FROM admins WHERE id=$1`, id)
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.fetch(ctx, `SELECT `+adminColumns+` FROM admins WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *adminRepository) fetch(ctx context.Context, query string, arg any) (*domain.Admin, error) {
	var admin domain.Admin
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&admin.ID,
		&admin.Name,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Active,
		&admin.CreatedAt,
		&admin.LastLogin,
	); err != nil {
		return nil, pgErr(err)
	}
	return &admin, nil
}

func (r *adminRepository) ListActive(ctx context.Context) ([]domain.Admin, error) {
	rows, err := r.db.Query(ctx, `SELECT `+adminColumns+` FROM admins WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Admin
	for rows.Next() {
		var admin domain.Admin
		if err := rows.Scan(
			&admin.ID,
			&admin.Name,
			&admin.Email,
			&admin.PasswordHash,
			&admin.Active,
			&admin.CreatedAt,
			&admin.LastLogin,
		); err != nil {
			return nil, err
		}
		result = append(result, admin)
	}
	return result, rows.Err()
}

func (r *adminRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return requireRow(r.db.Exec(ctx, `UPDATE admins SET password_hash=$1 WHERE id=$2`, hash, id))
}

func (r *adminRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return requireRow(r.db.Exec(ctx, `UPDATE admins SET last_login=$1 WHERE id=$2`, at, id))
}
