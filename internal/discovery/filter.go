package discovery

import (
	"strings"

	"mcpdiscover/internal/domain"
)

// Filter applies an include policy to a tool catalog. The result is a
// subsequence of tools in catalog order. An empty selection or exclusion
// set leaves the catalog unrestricted.
func Filter(tools []domain.Tool, policy domain.FilterPolicy) []domain.Tool {
	names := nameSet(policy.Names)
	switch policy.Mode {
	case domain.IncludeSelected:
		if len(names) == 0 {
			return tools
		}
		return keep(tools, func(tool domain.Tool) bool {
			_, ok := names[tool.Name]
			return ok
		})
	case domain.IncludeExcept:
		if len(names) == 0 {
			return tools
		}
		return keep(tools, func(tool domain.Tool) bool {
			_, ok := names[tool.Name]
			return !ok
		})
	default:
		return tools
	}
}

func keep(tools []domain.Tool, pred func(domain.Tool) bool) []domain.Tool {
	out := make([]domain.Tool, 0, len(tools))
	for _, tool := range tools {
		if pred(tool) {
			out = append(out, tool)
		}
	}
	return out
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		set[trimmed] = struct{}{}
	}
	return set
}
