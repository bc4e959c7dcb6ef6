package keyshares

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// UnsupportedVersionError is returned when no handler is registered for an
// envelope version. No envelope is constructed.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("keyshares version is not supported: %s", e.Version)
}

// FieldError is one failed check.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// ValidationAggregateError carries every failed check of a validation run.
type ValidationAggregateError struct {
	errs *multierror.Error
}

func (e *ValidationAggregateError) Error() string {
	return "keyshares did not pass validation: " + e.errs.Error()
}

// Failures lists the failed checks in the order they ran.
func (e *ValidationAggregateError) Failures() []*FieldError {
	failures := make([]*FieldError, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			failures = append(failures, fieldErr)
		}
	}
	return failures
}

// Fields returns the names of all failed fields.
func (e *ValidationAggregateError) Fields() []string {
	fields := make([]string, 0, len(e.errs.Errors))
	for _, f := range e.Failures() {
		fields = append(fields, f.Field)
	}
	return fields
}

// HasField reports whether field failed at least one check.
func (e *ValidationAggregateError) HasField(field string) bool {
	for _, f := range e.Failures() {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationAggregateError) Unwrap() []error {
	return e.errs.WrappedErrors()
}

// failures accumulates FieldErrors for one validation run.
type failures struct {
	errs *multierror.Error
}

func (f *failures) add(field, reason string) {
	f.errs = multierror.Append(f.errs, &FieldError{Field: field, Reason: reason})
}

// merge adds the failures of a unit, prefixing their field names with unit.
// Errors that are not aggregates are recorded against the unit itself.
func (f *failures) merge(unit string, err error) {
	if err == nil {
		return
	}
	var agg *ValidationAggregateError
	if !errors.As(err, &agg) {
		f.add(unit, err.Error())
		return
	}
	for _, fe := range agg.Failures() {
		f.add(joinField(unit, fe.Field), fe.Reason)
	}
}

func (f *failures) empty() bool {
	return f.errs == nil || len(f.errs.Errors) == 0
}

// err returns nil when nothing failed, never a typed nil.
func (f *failures) err() error {
	if f.empty() {
		return nil
	}
	f.errs.ErrorFormat = formatFailures
	return &ValidationAggregateError{errs: f.errs}
}

func formatFailures(errs []error) string {
	lines := make([]string, 0, len(errs))
	for _, err := range errs {
		lines = append(lines, err.Error())
	}
	return fmt.Sprintf("%d check(s) failed: %s", len(errs), strings.Join(lines, "; "))
}

func joinField(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	case strings.HasPrefix(field, "["):
		return prefix + field
	default:
		return prefix + "." + field
	}
}
