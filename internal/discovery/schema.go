package discovery

import (
	"encoding/json"

	"github.com/buger/jsonparser"

	"mcpdiscover/internal/domain"
)

// SchemaParameters lists the top-level properties of an object schema in
// document order. Schemas that are not objects or declare no properties
// yield nothing.
func SchemaParameters(schema json.RawMessage) []domain.ParameterDescriptor {
	if len(schema) == 0 {
		return nil
	}
	schemaType, err := jsonparser.GetString(schema, "type")
	if err != nil || schemaType != "object" {
		return nil
	}
	_, propsType, _, err := jsonparser.Get(schema, "properties")
	if err != nil || propsType != jsonparser.Object {
		return nil
	}

	required := requiredSet(schema)
	var params []domain.ParameterDescriptor
	err = jsonparser.ObjectEach(schema, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			name = string(key)
		}
		_, isRequired := required[name]
		params = append(params, domain.ParameterDescriptor{
			Name:        name,
			Required:    isRequired,
			Description: propertyDescription(value, dataType),
		})
		return nil
	}, "properties")
	if err != nil {
		return nil
	}
	return params
}

func requiredSet(schema []byte) map[string]struct{} {
	set := make(map[string]struct{})
	_, _ = jsonparser.ArrayEach(schema, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if err != nil || dataType != jsonparser.String {
			return
		}
		name, parseErr := jsonparser.ParseString(value)
		if parseErr != nil {
			return
		}
		set[name] = struct{}{}
	}, "required")
	return set
}

// propertyDescription returns the description of a property fragment.
// Numbers and booleans are rendered as their JSON literal; null, objects,
// arrays and non-object fragments carry none.
func propertyDescription(fragment []byte, dataType jsonparser.ValueType) string {
	if dataType != jsonparser.Object {
		return ""
	}
	value, valueType, _, err := jsonparser.Get(fragment, "description")
	if err != nil {
		return ""
	}
	switch valueType {
	case jsonparser.String:
		description, err := jsonparser.ParseString(value)
		if err != nil {
			return string(value)
		}
		return description
	case jsonparser.Number, jsonparser.Boolean:
		return string(value)
	default:
		return ""
	}
}
