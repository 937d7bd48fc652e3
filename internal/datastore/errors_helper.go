package datastore

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tphakala/tom-alerce/internal/errors"
)

// dbError creates a properly categorized database error with context
func dbError(err error, operation, table string, context ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("table", table)

	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// validationError creates a validation error for a rejected field value
func validationError(message, field string, value any) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryValidation).
		Context("field", field).
		Context("value", fmt.Sprintf("%v", value)).
		Build()
}

// notFoundError reports a missing record
func notFoundError(table string, key any) error {
	return errors.Newf("%s record %v not found", table, key).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Context("table", table).
		Context("key", fmt.Sprintf("%v", key)).
		Build()
}

// conflictError reports a unique constraint violation
func conflictError(err error, table, name string) error {
	return errors.New(fmt.Errorf("%s %q already exists: %w", table, name, err)).
		Component("datastore").
		Category(errors.CategoryConflict).
		Context("table", table).
		Context("name", name).
		Build()
}

// isDuplicateKey matches translated and raw driver unique violations
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
