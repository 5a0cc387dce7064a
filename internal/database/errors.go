package database

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"go-pos-mart/internal/shared"
)

const (
	mysqlDeadlock        = 1213
	mysqlLockWaitTimeout = 1205
)

// translate maps driver errors onto the domain taxonomy. dup is returned for
// unique-key violations and may be nil where none can occur.
func translate(err error, dup *shared.DomainError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) && dup != nil {
		return dup
	}
	if isConflict(err) {
		return fmt.Errorf("%w: %v", shared.ErrConcurrencyConflict, err)
	}
	return fmt.Errorf("database: %w", err)
}

// isConflict reports serialization failures and deadlocks, which are safe
// to retry as a whole unit of work.
func isConflict(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "40001" || pe.Code == "40P01"
	}
	return false
}
