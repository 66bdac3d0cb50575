package mysql

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/ruslano69/easyjob/pkg/adapters/base"
)

// Коды ошибок сервера MySQL, которые различает адаптер
const (
	ErrConCount        = 1040 // Too many connections
	ErrAccessDenied    = 1045
	ErrBadDB           = 1049
	ErrNoSuchTable     = 1146
	ErrBadField        = 1054
	ErrLockWaitTimeout = 1205
	ErrLockDeadlock    = 1213
	ErrServerShutdown  = 1053
)

// ErrorNumber возвращает код ошибки сервера или 0
func ErrorNumber(err error) uint16 {
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// mapError оборачивает ошибку драйвера в DatabaseOperationFailed с кодом сервера
func mapError(op, stmt string, err error) error {
	wrapped := err
	if n := ErrorNumber(err); n != 0 {
		wrapped = fmt.Errorf("mysql error %d: %w", n, err)
	}
	return base.DefaultErrorMapper(op, stmt, wrapped)
}

// IsRetryable сообщает, имеет ли смысл повторить подключение
// Повторяются сетевые сбои и перегрузка сервера, но не ошибки доступа
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch ErrorNumber(err) {
	case ErrConCount, ErrLockWaitTimeout, ErrLockDeadlock, ErrServerShutdown:
		return true
	case ErrAccessDenied, ErrBadDB, ErrNoSuchTable, ErrBadField:
		return false
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysqldriver.ErrInvalidConn) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
