package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AdminID is the fixed identifier of the administrator account.
const AdminID = "1"

// DateTimeFormat is the layout of DATETIME values written by the store.
const DateTimeFormat = "2006-01-02 15:04:05"

// ErrAdminNotFound is returned when the admin account is expected but
// absent.
var ErrAdminNotFound = errors.New("admin account not found")

// HashCost is the bcrypt cost used for new password hashes.
var HashCost = bcrypt.DefaultCost

// AdminAccount describes the administrator created on a fresh install.
type AdminAccount struct {
	UserName  string
	Password  string
	FirstName string
	LastName  string
}

// CreateAdmin inserts the administrator with id AdminID.
func (s *Store) CreateAdmin(ctx context.Context, table string, acct AdminAccount, now time.Time) error {
	hash, err := hashPassword(acct.Password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	ts := now.UTC().Format(DateTimeFormat)
	q := fmt.Sprintf(`INSERT INTO %s
		(id, user_name, user_hash, first_name, last_name, is_admin, status, date_entered, date_modified, deleted)
		VALUES (?, ?, ?, ?, ?, 1, 'Active', ?, ?, 0)`, quoteIdent(table))
	if _, err := s.db.ExecContext(ctx, q, AdminID, acct.UserName, hash, acct.FirstName, acct.LastName, ts, ts); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// ResetAdminPassword replaces the administrator's password hash.
// Returns ErrAdminNotFound when the account does not exist.
func (s *Store) ResetAdminPassword(ctx context.Context, table, password string, now time.Time) error {
	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("reset admin password: %w", err)
	}

	q := fmt.Sprintf("UPDATE %s SET user_hash = ?, date_modified = ? WHERE id = ?", quoteIdent(table))
	res, err := s.db.ExecContext(ctx, q, hash, now.UTC().Format(DateTimeFormat), AdminID)
	if err != nil {
		return fmt.Errorf("reset admin password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset admin password: %w", err)
	}
	if n == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// SetAdmin flags the administrator account as an admin.
func (s *Store) SetAdmin(ctx context.Context, table string, now time.Time) error {
	q := fmt.Sprintf("UPDATE %s SET is_admin = 1, date_modified = ? WHERE id = ?", quoteIdent(table))
	res, err := s.db.ExecContext(ctx, q, now.UTC().Format(DateTimeFormat), AdminID)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if n == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// CheckAdminPassword reports whether password matches the stored hash.
func (s *Store) CheckAdminPassword(ctx context.Context, table, password string) (bool, error) {
	q := fmt.Sprintf("SELECT user_hash FROM %s WHERE id = ?", quoteIdent(table))
	var hash string
	err := s.db.QueryRowContext(ctx, q, AdminID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrAdminNotFound
	}
	if err != nil {
		return false, fmt.Errorf("check admin password: %w", err)
	}
	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check admin password: %w", err)
	}
	return true, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
