package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// unsetVariable records a ${VAR} reference with no value in the environment
// and the config key that referenced it.
type unsetVariable struct {
	Name string
	Key  string
}

func (u unsetVariable) String() string {
	return u.Name + " (" + u.Key + ")"
}

// envExpander substitutes ${VAR} and $VAR in scalar values. Mapping keys are
// never expanded, so header names and field names stay literal.
type envExpander struct {
	lookup func(string) (string, bool)
	unset  map[unsetVariable]struct{}
}

func expandConfigEnv(raw []byte) (string, []unsetVariable, error) {
	return expandConfigEnvWith(raw, os.LookupEnv)
}

func expandConfigEnvWith(raw []byte, lookup func(string) (string, bool)) (string, []unsetVariable, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return "", nil, fmt.Errorf("parse config: %w", err)
	}

	e := &envExpander{lookup: lookup, unset: make(map[unsetVariable]struct{})}
	for _, doc := range root.Content {
		e.walk(doc, "")
	}

	expanded, err := yaml.Marshal(&root)
	if err != nil {
		return "", nil, fmt.Errorf("encode expanded config: %w", err)
	}
	return string(expanded), e.unsetList(), nil
}

func (e *envExpander) walk(node *yaml.Node, key string) {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			e.walk(node.Content[i+1], joinKey(key, node.Content[i].Value))
		}
	case yaml.SequenceNode:
		for i, item := range node.Content {
			e.walk(item, key+"["+itemLabel(item, i)+"]")
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			e.walk(node.Alias, key)
		}
	case yaml.ScalarNode:
		e.expandScalar(node, key)
	}
}

func (e *envExpander) expandScalar(node *yaml.Node, key string) {
	if node.Tag != "" && node.Tag != "!!str" {
		return
	}
	if !strings.Contains(node.Value, "$") {
		return
	}
	expanded := os.Expand(node.Value, func(name string) string {
		if value, ok := e.lookup(name); ok {
			return value
		}
		e.unset[unsetVariable{Name: name, Key: key}] = struct{}{}
		return ""
	})
	if expanded == node.Value {
		return
	}

	node.Value = expanded
	// Quoted scalars stay strings. Plain ones drop the tag so the encoder
	// resolves the result again, and `timeoutSeconds: ${TIMEOUT}` decodes
	// as a number.
	if node.Style != 0 || strings.TrimSpace(expanded) == "" {
		node.Tag = "!!str"
		return
	}
	node.Tag = ""
}

func (e *envExpander) unsetList() []unsetVariable {
	if len(e.unset) == 0 {
		return nil
	}
	list := make([]unsetVariable, 0, len(e.unset))
	for item := range e.unset {
		list = append(list, item)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Key != list[j].Key {
			return list[i].Key < list[j].Key
		}
		return list[i].Name < list[j].Name
	})
	return list
}

// itemLabel names a sequence item by its "name" field when it has one, so
// server entries read as servers[search] rather than servers[0].
func itemLabel(item *yaml.Node, index int) string {
	if item.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(item.Content); i += 2 {
			if item.Content[i].Value == "name" && item.Content[i+1].Kind == yaml.ScalarNode && item.Content[i+1].Value != "" {
				return item.Content[i+1].Value
			}
		}
	}
	return strconv.Itoa(index)
}

func joinKey(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
