// file: internals/features/attendance/ingest/service/transient.go
package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// IsTransient reports whether err is worth retrying: lost connections,
// server shutdown or overload, statement timeouts and serialization
// conflicts. Constraint and syntax errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	// caller gave up; retrying would ignore that
	if errors.Is(err, context.Canceled) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLState(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return transientSQLState(string(pqErr.Code))
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// pgx/pq wrap some connection failures as plain strings
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection reset", "broken pipe", "connection refused", "conn closed", "bad connection"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func transientSQLState(code string) bool {
	switch {
	case strings.HasPrefix(code, "08"): // connection exception
		return true
	case strings.HasPrefix(code, "53"): // insufficient resources
		return true
	}
	switch code {
	case "57P01", "57P02", "57P03", // admin/crash shutdown, cannot connect now
		"57014", // query_canceled (statement_timeout)
		"40001", // serialization_failure
		"40P01": // deadlock_detected
		return true
	}
	return false
}
