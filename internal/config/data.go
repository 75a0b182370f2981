package config

import (
	"encoding/json"
	"os"

	"github.com/vango-dev/stencil/internal/errors"
	"gopkg.in/yaml.v3"
)

// LoadData reads initial instance data from a JSON or YAML file. The top
// level must be an object.
func LoadData(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeDataFile).WithDetail(path).Wrap(err)
	}
	return ParseData(raw, isYAML(path))
}

// ParseData decodes a JSON or YAML object.
func ParseData(raw []byte, asYAML bool) (map[string]any, error) {
	data := make(map[string]any)
	var err error
	if asYAML {
		err = yaml.Unmarshal(raw, &data)
	} else {
		err = json.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, errors.New(errors.CodeDataFile).
			Wrap(err).
			WithSuggestion("The data file must hold a single object")
	}
	return data, nil
}
