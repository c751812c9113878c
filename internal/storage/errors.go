package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"dbetl/internal/schema"
)

// ErrUnsupportedType matches every *UnsupportedTypeError via errors.Is.
var ErrUnsupportedType = errors.New("unsupported type")

// UnsupportedTypeError reports a type a dialect cannot represent: either a
// logical type with no DDL mapping, or a native type name with no logical
// equivalent.
type UnsupportedTypeError struct {
	Dialect string
	Type    schema.LogicalType
	Native  string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Native != "" {
		return fmt.Sprintf("%s: unsupported native type %q", e.Dialect, e.Native)
	}
	return fmt.Sprintf("%s: logical type %s is not supported", e.Dialect, e.Type)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }

// TableCreationError wraps a CREATE TABLE the target rejected.
type TableCreationError struct {
	Table string
	Err   error
}

func (e *TableCreationError) Error() string {
	return fmt.Sprintf("create table %s: %v", e.Table, e.Err)
}

func (e *TableCreationError) Unwrap() error { return e.Err }

// ErrConnectionLost marks errors after which the connection is unusable.
var ErrConnectionLost = errors.New("connection lost")

// ConnectionLost wraps err so errors.Is(err, ErrConnectionLost) holds.
func ConnectionLost(err error) error {
	if err == nil || errors.Is(err, ErrConnectionLost) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConnectionLost, err)
}

// IsConnError reports driver-neutral signs of a broken connection.
// Cancellation is not a connection error.
func IsConnError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrConnectionLost) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
