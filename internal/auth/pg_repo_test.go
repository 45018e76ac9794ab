package auth

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert user: %w", dup)), "matches through wrapping")

	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}), "other SQLSTATEs are not duplicates")
	assert.False(t, isUniqueViolation(fmt.Errorf("connection refused")))
	assert.False(t, isUniqueViolation(nil))
}
