package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SchemaError reports a conversation context that failed to decode or validate.
// Requests failing with it never reach the upstream provider.
type SchemaError struct {
	Details []string
	Err     error
}

func (e *SchemaError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("invalid conversation context: %v", e.Err)
	}
	return "invalid conversation context: " + strings.Join(e.Details, "; ")
}

func (e *SchemaError) Unwrap() error { return e.Err }

// NewSchemaError wraps a decode or validation failure, extracting one detail per offending field.
func NewSchemaError(err error) *SchemaError {
	se := &SchemaError{Err: err}

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			se.Details = append(se.Details, fieldDetail(fe))
		}
	case errors.As(err, &typeErr):
		se.Details = append(se.Details, fmt.Sprintf("%s: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value))
	case errors.As(err, &syntaxErr):
		se.Details = append(se.Details, fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
	default:
		se.Details = append(se.Details, err.Error())
	}
	return se
}

func fieldDetail(fe validator.FieldError) string {
	name := fe.Namespace()
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed %s=%s", name, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s: failed %s", name, fe.Tag())
}

// UpstreamError reports any failure talking to the completion provider.
// Status is zero when no HTTP response was received.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream completion failed: %v", e.Err)
	}
	return fmt.Sprintf("upstream completion failed with status %d: %v", e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
