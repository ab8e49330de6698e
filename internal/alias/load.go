package alias

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// aliasSchema constrains JSON alias files: an object of canonical name →
// non-empty array of username strings.
const aliasSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": "array",
		"items": {"type": "string", "minLength": 1},
		"minItems": 1
	}
}`

// LoadFile reads an alias table from disk. The format is chosen by
// extension: .json (schema-validated), .yaml/.yml, or the pipe-separated
// line format ("canonical|alias|alias") for anything else. A missing file
// yields an empty table — running without aliases is legitimate.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil)
		}

		return nil, fmt.Errorf("alias: read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path, data)
	case ".yaml", ".yml":
		return loadYAML(path, data)
	default:
		return loadPipeSeparated(data)
	}
}

func loadJSON(path string, data []byte) (*Table, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(aliasSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}

	if !result.Valid() {
		return nil, fmt.Errorf("%w: %s: %s", ErrConfig, path, formatSchemaErrors(result))
	}

	var mapping map[string][]string

	err = json.Unmarshal(data, &mapping)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}

	return New(mapping)
}

func loadYAML(path string, data []byte) (*Table, error) {
	var mapping map[string][]string

	err := yaml.Unmarshal(data, &mapping)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}

	return New(mapping)
}

// loadPipeSeparated parses "canonical|alias|alias" lines. Blank lines and
// #-comments are skipped.
func loadPipeSeparated(data []byte) (*Table, error) {
	mapping := make(map[string][]string)

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "|")
		canonical := strings.TrimSpace(fields[0])

		if canonical == "" {
			return nil, fmt.Errorf("%w: line %q has no canonical name", ErrConfig, line)
		}

		for _, field := range fields[1:] {
			username := strings.TrimSpace(field)
			if username != "" {
				mapping[canonical] = append(mapping[canonical], username)
			}
		}

		if mapping[canonical] == nil {
			mapping[canonical] = []string{canonical}
		}
	}

	return New(mapping)
}

func formatSchemaErrors(result *gojsonschema.Result) string {
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}

	return strings.Join(msgs, "; ")
}
