package services

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"artemis/models"
)

var validate = newValidator()

var errTrailingData = errors.New("unexpected data after the JSON object")

// The validator reads the same `binding` tags gin uses and reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// DecodeContext parses a JSON conversation context and validates it.
func DecodeContext(r io.Reader) (models.ConversationContext, error) {
	var cc models.ConversationContext
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cc); err != nil {
		return models.ConversationContext{}, NewSchemaError(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return models.ConversationContext{}, NewSchemaError(errTrailingData)
	}
	if err := ValidateContext(cc); err != nil {
		return models.ConversationContext{}, err
	}
	return cc, nil
}

func ValidateContext(cc models.ConversationContext) error {
	if err := validate.Struct(cc); err != nil {
		return NewSchemaError(err)
	}
	return nil
}
