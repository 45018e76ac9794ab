package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const dbTimeout = 3 * time.Second

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// PostgresRepository implements AuthRepository on a pgx connection pool.
type PostgresRepository struct {
	Conn *pgxpool.Pool
}

func NewPostgresRepository(conn *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Conn: conn}
}

// ValidateNewUser checks required fields and uniqueness before creation.
func (p *PostgresRepository) ValidateNewUser(ctx context.Context, user *User) error {
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(user.Email) {
		return fmt.Errorf("invalid email format")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := p.Conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
		user.Username, user.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("database error during validation: %w", err)
	}
	if exists {
		return fmt.Errorf("username or email already exists")
	}
	return nil
}

func (p *PostgresRepository) CreateUser(ctx context.Context, user *User) error {
	if user.PasswordHash == "" {
		return fmt.Errorf("password is required")
	}
	if err := p.ValidateNewUser(ctx, user); err != nil {
		return err
	}
	if user.Role == "" {
		user.Role = RoleUser
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := p.Conn.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		user.Username, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username or email already exists")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// HashPassword produces a bcrypt hash for storage on a User.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches a stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (p *PostgresRepository) AuthenticateUser(ctx context.Context, username, password string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var hash string
	err := p.Conn.QueryRow(ctx,
		`SELECT password_hash FROM users WHERE username = $1`, username).Scan(&hash)
	if err != nil {
		return false, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return false, errors.New("invalid credentials")
	}
	return true, nil
}

func (p *PostgresRepository) GetUserInfo(ctx context.Context, username string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	user := &User{}
	err := p.Conn.QueryRow(ctx,
		`SELECT id, username, email, role, created_at FROM users WHERE username = $1`,
		username).Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s not found", username)
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", username, err)
	}
	return user, nil
}
