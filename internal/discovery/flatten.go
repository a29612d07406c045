package discovery

import (
	"strings"

	"mcpdiscover/internal/domain"
)

const requiredMarker = " ⭐"

// FindTool looks a tool up by name.
func FindTool(tools []domain.Tool, name string) (domain.Tool, bool) {
	for _, tool := range tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return domain.Tool{}, false
}

// SingleToolParameters lists the parameters of one tool, addressed by the
// bare parameter name. Unknown tools and tools without a schema yield an
// empty list.
func SingleToolParameters(tools []domain.Tool, toolName string) []domain.Option {
	tool, ok := FindTool(tools, strings.TrimSpace(toolName))
	if !ok {
		return []domain.Option{}
	}
	params := SchemaParameters(tool.InputSchema)
	options := make([]domain.Option, 0, len(params))
	for _, param := range params {
		description := param.Description
		if description == "" {
			description = "Parameter: " + param.Name
		}
		options = append(options, domain.Option{
			Name:        withRequiredMarker(param.Name, param.Required),
			Value:       param.Name,
			Description: description,
		})
	}
	return options
}

// MultiToolParameters lists the parameters of every tool, addressed as
// "<tool>.<parameter>". Callers filter the catalog first.
func MultiToolParameters(tools []domain.Tool) []domain.Option {
	options := []domain.Option{}
	for _, tool := range tools {
		for _, param := range SchemaParameters(tool.InputSchema) {
			description := param.Description
			if description == "" {
				description = "Parameter " + param.Name + " of tool " + tool.Name
			}
			options = append(options, domain.Option{
				Name:        withRequiredMarker(tool.Name+" → "+param.Name, param.Required),
				Value:       ParameterKey(tool.Name, param.Name),
				Description: description,
			})
		}
	}
	return options
}

// ParameterKey is the composite address of a parameter across tools.
func ParameterKey(toolName, paramName string) string {
	return toolName + "." + paramName
}

func withRequiredMarker(label string, required bool) string {
	if required {
		return label + requiredMarker
	}
	return label
}
