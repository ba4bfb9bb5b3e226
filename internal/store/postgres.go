package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adoptme/pet-adoption/backend/internal/common"
	"github.com/adoptme/pet-adoption/backend/internal/models"
)

// PostgresStore handles user CRUD against PostgreSQL. Uniqueness of email
// and contact is enforced by the table's unique indexes; violations come
// back as common.ErrConflict.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY,
			fullname   TEXT         NOT NULL,
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   TEXT         NOT NULL,
			contact    VARCHAR(10)  UNIQUE NOT NULL,
			locality   TEXT         NOT NULL DEFAULT '',
			city       TEXT         NOT NULL DEFAULT '',
			state      TEXT         NOT NULL DEFAULT '',
			country    TEXT         NOT NULL DEFAULT '',
			pincode    TEXT         NOT NULL DEFAULT '',
			role       TEXT         NOT NULL DEFAULT 'user',
			profilepic TEXT         NOT NULL DEFAULT '',
			pet_ids    TEXT[]       NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

const userColumns = `id, fullname, email, password, contact, locality, city, state, country, pincode, role, profilepic, pet_ids, created_at, updated_at`

func (s *PostgresStore) scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.Password, &u.Contact,
		&u.Locality, &u.City, &u.State, &u.Country, &u.Pincode,
		&u.Role, &u.ProfilePic, &u.PetIDs, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, fullname, email, password, contact, locality, city, state, country, pincode, role, profilepic, pet_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at, updated_at`,
		u.ID, u.FullName, u.Email, u.Password, u.Contact,
		u.Locality, u.City, u.State, u.Country, u.Pincode,
		u.Role, u.ProfilePic, u.PetIDs,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", common.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return s.scanUser(row)
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return s.scanUser(row)
}

// ListByRole returns all users carrying the given role.
func (s *PostgresStore) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// HasOtherWithEmailOrContact reports whether a different user already holds
// the given email or contact.
func (s *PostgresStore) HasOtherWithEmailOrContact(ctx context.Context, id, email, contact string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id <> $1 AND (email = $2 OR contact = $3))`,
		id, email, contact,
	).Scan(&exists)
	return exists, err
}

// Update persists the full mutable field set of a user row.
func (s *PostgresStore) Update(ctx context.Context, u *models.User) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE users SET
			fullname = $2, email = $3, contact = $4,
			locality = $5, city = $6, state = $7, country = $8, pincode = $9,
			profilepic = $10, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		u.ID, u.FullName, u.Email, u.Contact,
		u.Locality, u.City, u.State, u.Country, u.Pincode,
		u.ProfilePic,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrNotFound
		}
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("update user: %w", common.ErrConflict)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// ReplacePetIDs writes the user's owned-pet list as a whole. Every caller
// computes the full list first; there is no in-place append.
func (s *PostgresStore) ReplacePetIDs(ctx context.Context, id string, petIDs []string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET pet_ids = $2, updated_at = NOW() WHERE id = $1`,
		id, petIDs)
	if err != nil {
		return fmt.Errorf("replace pet ids: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
