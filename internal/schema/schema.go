// Package schema validates raw plugin documents against the contract
// declared for their interface and family.
package schema

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/orbview-labs/geodex/pkg/plugin"
)

// ErrValidation is the sentinel for every plugin content failure. Callers
// distinguish validation failures from lookup failures with errors.Is.
var ErrValidation = errors.New("plugin validation failed")

// FieldType enumerates the value types a schema field may declare.
type FieldType string

const (
	// TypeString requires a string value.
	TypeString FieldType = "string"

	// TypeInt requires an integer value.
	TypeInt FieldType = "int"

	// TypeFloat requires a floating point (or integer) value.
	TypeFloat FieldType = "float"

	// TypeBool requires a boolean value.
	TypeBool FieldType = "bool"

	// TypeList requires a sequence value.
	TypeList FieldType = "list"

	// TypeMapping requires a mapping value.
	TypeMapping FieldType = "mapping"
)

// Field declares one field of a family contract.
type Field struct {
	// Name is the field key inside the plugin's spec block.
	Name string

	// Type is the required value type.
	Type FieldType

	// Required marks fields that must be present.
	Required bool

	// Default is filled in when the field is absent. Only meaningful for
	// optional fields.
	Default any
}

// FamilySchema is the contract for one (interface, family) pair.
type FamilySchema struct {
	// Interface is the owning interface name.
	Interface string

	// Family is the family this contract applies to.
	Family string

	// Spec declares the fields of the plugin's spec block.
	Spec []Field
}

// validationErrorf wraps ErrValidation with a message and the plugin's
// provenance so the operator can locate the broken source file.
func validationErrorf(src plugin.Source, format string, args ...any) error {
	return errors.Wrapf(
		ErrValidation,
		"%s (package %q, file %q)",
		fmt.Sprintf(format, args...), src.Package, src.Relpath,
	)
}

// checkType reports whether value matches the declared field type.
func checkType(value any, t FieldType) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)

		return ok
	case TypeInt:
		_, ok := value.(int)

		return ok
	case TypeFloat:
		switch value.(type) {
		case float64, float32, int:
			return true
		default:
			return false
		}
	case TypeBool:
		_, ok := value.(bool)

		return ok
	case TypeList:
		_, ok := value.([]any)

		return ok
	case TypeMapping:
		_, ok := value.(map[string]any)

		return ok
	default:
		return false
	}
}
