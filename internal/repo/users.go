package repo

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = "id, email, full_name, company_name, role, logo_url, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }, u *User) error {
	return row.Scan(&u.ID, &u.Email, &u.FullName, &u.CompanyName, &u.Role, &u.LogoURL, &u.CreatedAt, &u.UpdatedAt)
}

func (r *PostgresRepository) CreateUser(ctx context.Context, u User, passwordHash string) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	query := `INSERT INTO users (id, email, password, full_name, company_name, role)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + userColumns
	var out User
	err := scanUser(r.db.QueryRowContext(ctx, query, u.ID, u.Email, passwordHash, u.FullName, u.CompanyName, u.Role), &out)
	if isUniqueViolation(err) {
		return User{}, ErrConflict
	}
	return out, err
}

// GetByEmail returns the user and its password hash.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, string, error) {
	var u User
	var hash string
	query := "SELECT " + userColumns + ", password FROM users WHERE email=$1"
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.FullName, &u.CompanyName, &u.Role, &u.LogoURL, &u.CreatedAt, &u.UpdatedAt, &hash)
	if err != nil {
		return User{}, "", notFound(err)
	}
	return u, hash, nil
}

func (r *PostgresRepository) GetProfile(ctx context.Context, id string) (User, error) {
	var u User
	err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=$1", id), &u)
	return u, notFound(err)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, fullName, companyName string) (User, error) {
	query := `UPDATE users SET full_name=$2, company_name=$3, updated_at=now()
		WHERE id=$1 RETURNING ` + userColumns
	var u User
	err := scanUser(r.db.QueryRowContext(ctx, query, id, fullName, companyName), &u)
	return u, notFound(err)
}

func (r *PostgresRepository) UpdateLogo(ctx context.Context, id, logoURL string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET logo_url=$2, updated_at=now() WHERE id=$1", id, logoURL)
	if err != nil {
		return err
	}
	return expectOne(res)
}
