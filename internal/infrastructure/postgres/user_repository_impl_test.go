package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	dup := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_lower_idx"}
	if !isUniqueViolation(dup) {
		t.Fatal("unique violation not detected")
	}
	if !isUniqueViolation(fmt.Errorf("insert user: %w", dup)) {
		t.Fatal("wrapped unique violation not detected")
	}

	other := &pgconn.PgError{Code: pgerrcode.NotNullViolation}
	if isUniqueViolation(other) {
		t.Fatal("not-null violation misclassified as unique violation")
	}
	if isUniqueViolation(fmt.Errorf("plain error")) {
		t.Fatal("plain error misclassified as unique violation")
	}
}
