package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/maternal-health/internal/model"
	"github.com/iliyamo/maternal-health/internal/utils"
)

const userColumns = "id, username, email, password_hash, govt_id, role, is_active, created_at, updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ExistsByEmailOrGovtID reports whether any account already uses the email
// (case-insensitive) or the government id.
func (r *UserRepo) ExistsByEmailOrGovtID(ctx context.Context, email, govtID string) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE LOWER(email)=? OR govt_id=? LIMIT 1",
		model.NormalizeEmail(email), strings.TrimSpace(govtID)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return true, nil
}

// Create hashes password, inserts u and fills in its ID and timestamps.
// Email is stored lower-cased; an empty role becomes model.RoleUser.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = model.NormalizeEmail(u.Email)
	u.GovtID = strings.TrimSpace(u.GovtID)
	u.Username = strings.TrimSpace(u.Username)
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	exists, err := r.ExistsByEmailOrGovtID(ctx, u.Email, u.GovtID)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailOrGovtIDExists
	}

	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, govt_id, role) VALUES (?,?,?,?,?)",
		u.Username, u.Email, hash, u.GovtID, u.Role)
	if err != nil {
		// the pre-check can lose a race against a concurrent sign-up
		if isDuplicateKey(err) {
			return ErrEmailOrGovtIDExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = *stored
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "LOWER(email)=?", model.NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "id=?", id)
}

func (r *UserRepo) getOne(ctx context.Context, cond string, arg any) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond+" LIMIT 1", arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.GovtID, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
