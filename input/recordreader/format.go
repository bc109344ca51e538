// Package recordreader decodes streams of log records from files or network connections
package recordreader

import (
	"fmt"
	"strings"

	"github.com/relex/udpsender/util"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a record stream
type Format string

const (
	// FormatJSON is one JSON object per line
	FormatJSON Format = "json"
	// FormatMsgpack is a sequence of msgpack maps
	FormatMsgpack Format = "msgpack"
)

var allFormats = []Format{FormatJSON, FormatMsgpack}

// ParseFormat finds the Format by name, case-insensitive
func ParseFormat(name string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(allFormats, format) {
		return "", fmt.Errorf("unsupported format %q, expect one of %v", name, allFormats)
	}
	return format, nil
}

// UnmarshalYAML parses and validates the format name
func (format *Format) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return util.NewYamlError(value, err.Error())
	}
	parsed, err := ParseFormat(name)
	if err != nil {
		return util.NewYamlError(value, err.Error())
	}
	*format = parsed
	return nil
}
