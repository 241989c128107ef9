package output

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter renders values as YAML.
type YAMLFormatter struct{}

// Format renders any value as YAML. Values are round-tripped through JSON
// first so the json tags decide the key names.
func (f *YAMLFormatter) Format(value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	var generic any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
