package enum

// CustomFieldEntity names the record kind a custom field definition applies to.
type CustomFieldEntity string

const (
	CustomFieldEntityLead      CustomFieldEntity = "lead"
	CustomFieldEntityQuotation CustomFieldEntity = "quotation"
	CustomFieldEntityClient    CustomFieldEntity = "client"
)

func (e CustomFieldEntity) IsValid() bool {
	switch e {
	case CustomFieldEntityLead, CustomFieldEntityQuotation, CustomFieldEntityClient:
		return true
	}
	return false
}

// CustomFieldType is the value type a custom field accepts.
type CustomFieldType string

const (
	CustomFieldTypeText     CustomFieldType = "text"
	CustomFieldTypeNumber   CustomFieldType = "number"
	CustomFieldTypeDate     CustomFieldType = "date"
	CustomFieldTypeDropdown CustomFieldType = "dropdown"
	CustomFieldTypeCheckbox CustomFieldType = "checkbox"
)

func (t CustomFieldType) IsValid() bool {
	switch t {
	case CustomFieldTypeText, CustomFieldTypeNumber, CustomFieldTypeDate,
		CustomFieldTypeDropdown, CustomFieldTypeCheckbox:
		return true
	}
	return false
}
