package sqlstore

import (
	"context"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

type userRow struct {
	ID           int64      `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	Phone        string     `db:"phone"`
	Department   string     `db:"department"`
	PasswordHash string     `db:"password_hash"`
	Active       bool       `db:"is_active"`
	CreatedAt    time.Time  `db:"created_at"`
	LastLogin    *time.Time `db:"last_login"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Department:   r.Department,
		PasswordHash: r.PasswordHash,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		LastLogin:    r.LastLogin,
	}
}

type userRepository struct {
	q querier
}

const userColumns = `id, name, email, phone, department, password_hash, is_active, created_at, last_login`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, phone, department, password_hash, is_active, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	id, err := insert(ctx, r.q, query,
		user.Name, user.Email, user.Phone, user.Department, user.PasswordHash, user.Active, user.CreatedAt)
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var row userRow
	if err := get(ctx, r.q, &row, `SELECT `+userColumns+` FROM users WHERE id=?`, id); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	if err := get(ctx, r.q, &row, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER(?)`, email); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return execOne(ctx, r.q, `UPDATE users SET password_hash=? WHERE id=?`, hash, id)
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return execOne(ctx, r.q, `UPDATE users SET last_login=? WHERE id=?`, at, id)
}

type adminRow struct {
	ID           int64      `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Active       bool       `db:"is_active"`
	CreatedAt    time.Time  `db:"created_at"`
	LastLogin    *time.Time `db:"last_login"`
}

func (r adminRow) toDomain() domain.Admin {
	return domain.Admin{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		LastLogin:    r.LastLogin,
	}
}

type adminRepository struct {
	q querier
}

const adminColumns = `id, name, email, password_hash, is_active, created_at, last_login`

func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	const query = `
        INSERT INTO admins (name, email, password_hash, is_active, created_at)
        VALUES (?, ?, ?, ?, ?)`
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	id, err := insert(ctx, r.q, query, admin.Name, admin.Email, admin.PasswordHash, admin.Active, admin.CreatedAt)
	if err != nil {
		return err
	}
	admin.ID = id
	return nil
}

func (r *adminRepository) GetByID(ctx context.Context, id int64) (*domain.Admin, error) {
	var row adminRow
	if err := get(ctx, r.q, &row, `SELECT `+adminColumns+` FROM admins WHERE id=?`, id); err != nil {
		return nil, err
	}
	admin := row.toDomain()
	return &admin, nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	var row adminRow
	if err := get(ctx, r.q, &row, `SELECT `+adminColumns+` FROM admins WHERE LOWER(email)=LOWER(?)`, email); err != nil {
		return nil, err
	}
	admin := row.toDomain()
	return &admin, nil
}

func (r *adminRepository) ListActive(ctx context.Context) ([]domain.Admin, error) {
	var rows []adminRow
	if err := selectRows(ctx, r.q, &rows, `SELECT `+adminColumns+` FROM admins WHERE is_active=? ORDER BY id`, true); err != nil {
		return nil, err
	}
	result := make([]domain.Admin, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (r *adminRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return execOne(ctx, r.q, `UPDATE admins SET password_hash=? WHERE id=?`, hash, id)
}

func (r *adminRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return execOne(ctx, r.q, `UPDATE admins SET last_login=? WHERE id=?`, at, id)
}
