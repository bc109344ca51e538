package udpsender

import (
	"fmt"
	"strings"

	"github.com/relex/udpsender/base"
	"golang.org/x/exp/slices"
)

// lineTerminator ends every formatted line
const lineTerminator = "\r\n"

// Formatter projects log records onto a fixed list of fields and renders them as delimited lines
//
// A Formatter is immutable and safe for concurrent use
type Formatter struct {
	fieldNames []string
	separator  string
	host       string
	port       int
}

// NewFormatter creates a Formatter from comma-separated field names
func NewFormatter(params string, separator string, host string, port int) *Formatter {
	return &Formatter{
		fieldNames: ParseParams(params),
		separator:  separator,
		host:       host,
		port:       port,
	}
}

// ParseParams splits comma-separated field names
//
// Trailing empty names are removed and repeated names only keep their first position
func ParseParams(params string) []string {
	names := strings.Split(params, ",")
	for len(names) > 0 && names[len(names)-1] == "" {
		names = names[:len(names)-1]
	}
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if slices.Index(unique, name) != -1 {
			continue
		}
		unique = append(unique, name)
	}
	return unique
}

// FieldNames returns the projected field names in output order
func (formatter *Formatter) FieldNames() []string {
	return slices.Clone(formatter.fieldNames)
}

// Format renders the given record into a datagram addressed to the configured destination
//
// Fields not in the projection are ignored and projected fields missing in the record are rendered as empty
func (formatter *Formatter) Format(record *base.LogRecord) base.Datagram {
	var builder strings.Builder
	for i, name := range formatter.fieldNames {
		if i > 0 {
			builder.WriteString(formatter.separator)
		}
		if record != nil {
			if value, found := record.Fields[name]; found {
				builder.WriteString(fieldValueString(value))
			}
		}
	}
	builder.WriteString(lineTerminator)

	return base.Datagram{
		Payload: []byte(builder.String()),
		Host:    formatter.host,
		Port:    formatter.port,
	}
}

func fieldValueString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
