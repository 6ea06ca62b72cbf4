// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	// facetPattern accepts record type and tag names. "+" joins tags in
	// combination keys and "," separates list parameters, so neither may
	// appear inside a single name.
	facetPattern = regexp.MustCompile(`^[^+,\x00-\x1f]{1,128}$`)

	// sliceKeyPattern matches time slice keys such as "1850_1900".
	sliceKeyPattern = regexp.MustCompile(`^-?[0-9]{1,6}_-?[0-9]{1,6}$`)

	// resolutionPattern matches resolution keys such as "75x75".
	resolutionPattern = regexp.MustCompile(`^[1-9][0-9]{0,4}x[1-9][0-9]{0,4}$`)
)

// FieldError is one rejected field. Field is the json name when the struct
// field has a json tag.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   any
	Message string
}

// RequestValidationError collects every failed field of one struct.
type RequestValidationError struct {
	Fields []FieldError
}

func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	return strings.Join(ve.messages(), "; ")
}

func (ve *RequestValidationError) messages() []string {
	out := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		out[i] = f.Message
	}
	return out
}

// APIError is the error body produced for a failed validation.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError converts the failures to a VALIDATION_ERROR body. A single
// failure reports its field, tag and value; several are listed under
// "fields".
func (ve *RequestValidationError) ToAPIError() *APIError {
	apiErr := &APIError{Code: "VALIDATION_ERROR", Message: "Validation failed"}
	switch len(ve.Fields) {
	case 0:
	case 1:
		f := ve.Fields[0]
		apiErr.Message = f.Message
		apiErr.Details = map[string]any{"field": f.Field, "tag": f.Tag, "value": f.Value}
	default:
		list := make([]map[string]any, len(ve.Fields))
		for i, f := range ve.Fields {
			list[i] = map[string]any{"field": f.Field, "tag": f.Tag, "message": f.Message}
		}
		apiErr.Message = strings.Join(ve.messages(), "; ")
		apiErr.Details = map[string]any{"fields": list}
	}
	return apiErr
}

// GetValidator returns the shared validator with the facet, slicekey and
// resolution tags registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})

		mustRegister("facet", matches(facetPattern))
		mustRegister("slicekey", matches(sliceKeyPattern))
		mustRegister("resolution", matches(resolutionPattern))
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// ValidateStruct validates s and returns nil or the failed fields.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := make([]FieldError, len(fes))
	for i, fe := range fes {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: describe(fe),
		}
	}
	return &RequestValidationError{Fields: out}
}

// describe renders a human readable message for fe.
func describe(fe validator.FieldError) string {
	name, p := fe.Field(), fe.Param()
	kind := fe.Kind()
	collection := kind == reflect.Slice || kind == reflect.Map

	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "facet":
		return name + " must be 1 to 128 characters without '+' or ','"
	case "slicekey":
		return name + " must be a time slice key such as 1850_1900"
	case "resolution":
		return name + " must be a resolution key such as 75x75"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, p)
	case "gte", "min":
		if collection {
			return fmt.Sprintf("%s must have at least %s items", name, p)
		}
		return fmt.Sprintf("%s must be at least %s", name, p)
	case "lte", "max":
		switch {
		case collection:
			return fmt.Sprintf("%s must have at most %s items", name, p)
		case kind == reflect.String:
			return fmt.Sprintf("%s must be at most %s characters", name, p)
		}
		return fmt.Sprintf("%s must be at most %s", name, p)
	}
	return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
}
