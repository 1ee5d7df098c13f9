package testrun

import (
	"fmt"
	"sort"
	"strings"

	"github.com/benchline-ai/benchline-go/internal/messages"
	"github.com/benchline-ai/benchline-go/internal/runerrors"
)

// ColumnRole is the semantic tag on a data structure column.
type ColumnRole string

const (
	RoleInput             ColumnRole = "INPUT"
	RoleExpectedOutput    ColumnRole = "EXPECTED_OUTPUT"
	RoleContextToEvaluate ColumnRole = "CONTEXT_TO_EVALUATE"
	RoleVariable          ColumnRole = "VARIABLE"
	RoleNullableVariable  ColumnRole = "NULLABLE_VARIABLE"
)

// singletonRoles may appear on at most one column each.
var singletonRoles = []ColumnRole{RoleInput, RoleExpectedOutput, RoleContextToEvaluate}

// DataStructure maps column name to its role. A nil structure is valid: every
// column is then carried as an untyped variable.
type DataStructure map[string]ColumnRole

// Row is one unit of evaluation input: column name to cell value. A cell is
// a string, a []string, or nil (for nullable roles).
type Row map[string]any

func (s DataStructure) validate() error {
	for column, role := range s {
		switch role {
		case RoleInput, RoleExpectedOutput, RoleContextToEvaluate, RoleVariable, RoleNullableVariable:
		default:
			return runerrors.NewConfigurationError(messages.ConfigurationInvalid,
				"Error", fmt.Sprintf("column %q has unknown role %q", column, role))
		}
	}
	for _, role := range singletonRoles {
		columns := s.columnsWithRole(role)
		if len(columns) > 1 {
			return runerrors.NewConfigurationError(messages.SchemaRoleConflict,
				"Role", role, "Columns", strings.Join(columns, ", "))
		}
	}
	return nil
}

func (s DataStructure) columnsWithRole(role ColumnRole) []string {
	var columns []string
	for column, r := range s {
		if r == role {
			columns = append(columns, column)
		}
	}
	sort.Strings(columns)
	return columns
}

// validateRow checks every declared column's cell type against its role.
// Columns absent from the row are allowed (absent roles yield empty values);
// columns present in the row but not declared are carried through untouched.
func (s DataStructure) validateRow(row Row) error {
	for column, role := range s {
		value, present := row[column]
		if !present {
			continue
		}
		switch role {
		case RoleInput, RoleExpectedOutput:
			if _, ok := value.(string); !ok {
				return runerrors.NewConfigurationError(messages.DataValueTypeMismatch,
					"Column", column, "Expected", "string", "Got", typeName(value))
			}
		case RoleContextToEvaluate, RoleVariable:
			if !isStringOrList(value) {
				return runerrors.NewConfigurationError(messages.DataValueTypeMismatch,
					"Column", column, "Expected", "string or string list", "Got", typeName(value))
			}
		case RoleNullableVariable:
			if value != nil && !isStringOrList(value) {
				return runerrors.NewConfigurationError(messages.DataValueTypeMismatch,
					"Column", column, "Expected", "string, string list or null", "Got", typeName(value))
			}
		}
	}
	return nil
}

// rowFields is the typed extraction of one row, scoped to one processor
// invocation.
type rowFields struct {
	input             string
	expectedOutput    string
	contextToEvaluate []string
	variables         map[string]any
}

// extractFields pulls typed fields out of a row using the role map. Absent
// roles yield empty values. With a nil structure every cell becomes a
// variable.
func (s DataStructure) extractFields(row Row) (rowFields, error) {
	fields := rowFields{variables: map[string]any{}}
	if s == nil {
		for column, value := range row {
			fields.variables[column] = value
		}
		return fields, nil
	}
	if err := s.validateRow(row); err != nil {
		return fields, err
	}
	for column, role := range s {
		value, present := row[column]
		if !present || value == nil {
			continue
		}
		switch role {
		case RoleInput:
			fields.input = value.(string)
		case RoleExpectedOutput:
			fields.expectedOutput = value.(string)
		case RoleContextToEvaluate:
			fields.contextToEvaluate = asStringList(value)
		case RoleVariable, RoleNullableVariable:
			fields.variables[column] = value
		}
	}
	return fields, nil
}

func isStringOrList(value any) bool {
	switch value.(type) {
	case string, []string:
		return true
	}
	return false
}

func asStringList(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	}
	return nil
}

func typeName(value any) string {
	if value == nil {
		return "null"
	}
	return fmt.Sprintf("%T", value)
}
