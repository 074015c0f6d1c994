package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// stringKeys hold values the config types declare as strings even though
// YAML users naturally write them unquoted (chat_id: -100123).
var stringKeys = map[string]bool{
	"chat_id":           true,
	"token":             true,
	"school_year_start": true,
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// coerceToJSONBytes turns a YAML config into JSON so both formats go through
// the same strict decoder. JSON input is returned as is.
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	if !isYAML(path) {
		return data, "json", nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, "yaml", fmt.Errorf("yaml: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	j, err := json.Marshal(yamlToJSON("", doc))
	if err != nil {
		return nil, "yaml", fmt.Errorf("yaml to json: %w", err)
	}
	return j, "yaml", nil
}

// yamlToJSON rewrites decoded YAML into values encoding/json accepts. key is
// the map key v was found under.
func yamlToJSON(key string, v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = yamlToJSON(k, e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			ks := fmt.Sprint(k)
			out[ks] = yamlToJSON(ks, e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = yamlToJSON("", e)
		}
		return out
	case time.Time:
		return x.Format(time.DateOnly)
	case int:
		if stringKeys[key] {
			return strconv.Itoa(x)
		}
	case int64:
		if stringKeys[key] {
			return strconv.FormatInt(x, 10)
		}
	}
	return v
}
