package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"pgx", &pgconn.PgError{Code: "23505"}, true},
		{"pgx other code", &pgconn.PgError{Code: "23503"}, false},
		{"pq wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"mysql", &mysql.MySQLError{Number: 1062}, true},
		{"mysql other", &mysql.MySQLError{Number: 1452}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestIsUniqueViolationOn(t *testing.T) {
	const index = "idx_gift_awards_participant"
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pgx same index", &pgconn.PgError{Code: "23505", ConstraintName: index}, true},
		{"pgx other index", &pgconn.PgError{Code: "23505", ConstraintName: "idx_gift_awards_code"}, false},
		{"pgx fk violation", &pgconn.PgError{Code: "23503", ConstraintName: index}, false},
		{"pq wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: index}), true},
		{"mysql 8", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '10' for key 'gift_awards." + index + "'"}, true},
		{"mysql 5.7", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '10' for key '" + index + "'"}, true},
		{"mysql other index", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'AB' for key 'gift_awards.idx_gift_awards_code'"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolationOn(tt.err, index))
		})
	}
}
