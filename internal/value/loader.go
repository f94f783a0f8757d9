package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
)

// Format names a data file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCBOR Format = "cbor"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	case ".cbor":
		return FormatCBOR, true
	default:
		return "", false
	}
}

// LoadFile reads a data file and converts its contents.
func LoadFile(path string) (Value, []Warning, error) {
	format, ok := FormatOf(path)
	if !ok {
		return None(), nil, hosterrors.NewConfigError(
			fmt.Sprintf("unsupported data file extension %q", filepath.Ext(path)), nil).WithPath(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return None(), nil, hosterrors.NewFileNotFoundError(path, err)
		}
		return None(), nil, hosterrors.NewIOError(path, err)
	}

	v, warnings, err := Decode(data, format)
	if err != nil {
		return None(), nil, hosterrors.NewConfigError("cannot decode data file", err).WithPath(path)
	}
	return v, warnings, nil
}

// Decode parses data in the given format and converts the result.
func Decode(data []byte, format Format) (Value, []Warning, error) {
	var term interface{}
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.UseNumber()
		if err := dec.Decode(&term); err != nil {
			return None(), nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &term); err != nil {
			return None(), nil, err
		}
	case FormatTOML:
		var m map[string]interface{}
		if _, err := toml.Decode(string(data), &m); err != nil {
			return None(), nil, err
		}
		term = m
	case FormatCBOR:
		if err := cbor.Unmarshal(data, &term); err != nil {
			return None(), nil, err
		}
	default:
		return None(), nil, fmt.Errorf("unknown format %q", format)
	}

	v, warnings := Convert(term)
	return v, warnings, nil
}

// ParseInputs turns key=value pairs into a dict of strings. A later pair
// overrides an earlier one with the same key.
func ParseInputs(pairs []string) (Value, error) {
	m := make(map[string]Value, len(pairs))
	for _, pair := range pairs {
		key, val, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return None(), hosterrors.NewConfigError(
				fmt.Sprintf("input %q must have the form key=value", pair), nil)
		}
		m[key] = Str(val)
	}
	return Value{kind: KindDict, data: m}, nil
}
