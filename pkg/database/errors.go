package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// mysqlDuplicateEntry: код ошибки MySQL ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

// IsUniqueViolation проверяет нарушение уникального индекса для pgx, lib/pq и MySQL
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	// go-sql-driver/mysql
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	return false
}

// IsUniqueViolationOn проверяет нарушение конкретного уникального индекса.
// PostgreSQL сообщает имя ограничения отдельно, MySQL только в тексте ("for key 'table.idx'").
func IsUniqueViolationOn(err error, index string) bool {
	if err == nil || index == "" {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName == index
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint == index
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return strings.Contains(myErr.Message, "'"+index+"'") || strings.Contains(myErr.Message, "."+index+"'")
	}
	return false
}
