package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sangkips/crm-backend/internal/application/aggregation"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/pkg/apperror"
)

// parseCustomFields converts raw request values into typed values checked
// against defs. Unknown names, wrong types, options outside a dropdown's list
// and missing required fields are all reported together.
func parseCustomFields(defs []entity.CustomFieldDefinition, raw map[string]interface{}) (entity.CustomFieldValues, error) {
	byName := make(map[string]*entity.CustomFieldDefinition, len(defs))
	for i := range defs {
		byName[defs[i].Name] = &defs[i]
	}

	var fieldErrs []apperror.FieldError
	out := make(entity.CustomFieldValues, len(raw))

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := raw[name]
		field := "customFields." + name
		def, ok := byName[name]
		if !ok {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: field, Message: "is not a defined custom field"})
			continue
		}
		if v == nil {
			continue
		}
		value, err := convertCustomValue(def, v)
		if err != nil {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: field, Message: err.Error()})
			continue
		}
		out[name] = value
	}

	for _, def := range defs {
		if !def.Required {
			continue
		}
		if v, ok := out[def.Name]; !ok || isBlank(v) {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "customFields." + def.Name, Message: "is required"})
		}
	}

	if len(fieldErrs) > 0 {
		return nil, apperror.NewValidationError(fieldErrs)
	}
	return out, nil
}

func convertCustomValue(def *entity.CustomFieldDefinition, v interface{}) (entity.CustomFieldValue, error) {
	switch def.Type {
	case enum.CustomFieldTypeText:
		s, ok := v.(string)
		if !ok {
			return entity.CustomFieldValue{}, fmt.Errorf("must be text")
		}
		return entity.TextValue(s), nil

	case enum.CustomFieldTypeNumber:
		switch n := v.(type) {
		case float64:
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return entity.CustomFieldValue{}, fmt.Errorf("must be a finite number")
			}
			return entity.NumberValue(n), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return entity.CustomFieldValue{}, fmt.Errorf("must be a number")
			}
			return entity.NumberValue(f), nil
		}
		return entity.CustomFieldValue{}, fmt.Errorf("must be a number")

	case enum.CustomFieldTypeDate:
		s, ok := v.(string)
		if !ok {
			return entity.CustomFieldValue{}, fmt.Errorf("must be a date")
		}
		t, err := aggregation.ParseDate(s)
		if err != nil {
			return entity.CustomFieldValue{}, fmt.Errorf("must be a date")
		}
		return entity.DateValue(t), nil

	case enum.CustomFieldTypeDropdown:
		s, ok := v.(string)
		if !ok || !def.HasOption(s) {
			return entity.CustomFieldValue{}, fmt.Errorf("must be one of %s", strings.Join(def.Options, ", "))
		}
		return entity.OptionValue(s), nil

	case enum.CustomFieldTypeCheckbox:
		b, ok := v.(bool)
		if !ok {
			return entity.CustomFieldValue{}, fmt.Errorf("must be true or false")
		}
		return entity.BoolValue(b), nil
	}
	return entity.CustomFieldValue{}, fmt.Errorf("has unsupported type %s", def.Type)
}

func isBlank(v entity.CustomFieldValue) bool {
	switch v.Type {
	case enum.CustomFieldTypeText, enum.CustomFieldTypeDropdown:
		return strings.TrimSpace(v.Text) == ""
	case enum.CustomFieldTypeDate:
		return v.Date.IsZero()
	}
	return false
}

// validateDefinition checks a custom field definition before it is stored.
func validateDefinition(def *entity.CustomFieldDefinition) error {
	var fieldErrs []apperror.FieldError
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		fieldErrs = append(fieldErrs, apperror.FieldError{Field: "name", Message: "is required"})
	}
	if !def.Entity.IsValid() {
		fieldErrs = append(fieldErrs, apperror.FieldError{Field: "entity", Message: "must be lead, quotation or client"})
	}
	if !def.Type.IsValid() {
		fieldErrs = append(fieldErrs, apperror.FieldError{Field: "type", Message: "must be text, number, date, dropdown or checkbox"})
	}
	if def.Type == enum.CustomFieldTypeDropdown && len(def.Options) == 0 {
		fieldErrs = append(fieldErrs, apperror.FieldError{Field: "options", Message: "dropdown fields need at least one option"})
	}
	if def.Type != enum.CustomFieldTypeDropdown {
		def.Options = nil
	}
	if len(fieldErrs) > 0 {
		return apperror.NewValidationError(fieldErrs)
	}
	return nil
}
