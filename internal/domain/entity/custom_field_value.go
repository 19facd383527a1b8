package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sangkips/crm-backend/internal/domain/enum"
)

// CustomFieldValue is a typed value for one custom field. Exactly one of the
// payload fields is meaningful, selected by Type.
type CustomFieldValue struct {
	Type   enum.CustomFieldType
	Text   string
	Number float64
	Date   time.Time
	Bool   bool
}

// CustomFieldValues maps a field name to its typed value
type CustomFieldValues map[string]CustomFieldValue

func TextValue(s string) CustomFieldValue {
	return CustomFieldValue{Type: enum.CustomFieldTypeText, Text: s}
}

func NumberValue(n float64) CustomFieldValue {
	return CustomFieldValue{Type: enum.CustomFieldTypeNumber, Number: n}
}

func DateValue(t time.Time) CustomFieldValue {
	return CustomFieldValue{Type: enum.CustomFieldTypeDate, Date: t.UTC()}
}

func OptionValue(s string) CustomFieldValue {
	return CustomFieldValue{Type: enum.CustomFieldTypeDropdown, Text: s}
}

func BoolValue(b bool) CustomFieldValue {
	return CustomFieldValue{Type: enum.CustomFieldTypeCheckbox, Bool: b}
}

// Raw returns the plain Go value carried by v.
func (v CustomFieldValue) Raw() any {
	switch v.Type {
	case enum.CustomFieldTypeNumber:
		return v.Number
	case enum.CustomFieldTypeDate:
		return v.Date.Format(time.RFC3339)
	case enum.CustomFieldTypeCheckbox:
		return v.Bool
	default:
		return v.Text
	}
}

type customFieldEnvelope struct {
	Type  enum.CustomFieldType `json:"type"`
	Value json.RawMessage      `json:"value"`
}

// MarshalJSON writes {"type": ..., "value": ...} so the type survives storage.
func (v CustomFieldValue) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(v.Raw())
	if err != nil {
		return nil, err
	}
	return json.Marshal(customFieldEnvelope{Type: v.Type, Value: raw})
}

func (v *CustomFieldValue) UnmarshalJSON(data []byte) error {
	var env customFieldEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if !env.Type.IsValid() {
		return fmt.Errorf("unknown custom field type %q", env.Type)
	}
	out := CustomFieldValue{Type: env.Type}
	var err error
	switch env.Type {
	case enum.CustomFieldTypeNumber:
		err = json.Unmarshal(env.Value, &out.Number)
	case enum.CustomFieldTypeCheckbox:
		err = json.Unmarshal(env.Value, &out.Bool)
	case enum.CustomFieldTypeDate:
		var s string
		if err = json.Unmarshal(env.Value, &s); err == nil {
			out.Date, err = time.Parse(time.RFC3339, s)
		}
	default:
		err = json.Unmarshal(env.Value, &out.Text)
	}
	if err != nil {
		return fmt.Errorf("decode %s custom field: %w", env.Type, err)
	}
	*v = out
	return nil
}
