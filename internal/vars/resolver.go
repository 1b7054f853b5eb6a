package vars

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateTimeLayout = "2006-01-02T15:04:05"

var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// Lookup reads flow variables. A found variable may still hold a nil value.
type Lookup interface {
	Get(name string) (any, bool)
}

// LookupFunc adapts a plain function to Lookup.
type LookupFunc func(name string) (any, bool)

func (f LookupFunc) Get(name string) (any, bool) { return f(name) }

// Resolve replaces every ${name} in s with the variable's string form.
// Unknown or nil variables become the empty string. Values are inserted
// literally and never re-scanned for placeholders.
func Resolve(s string, lookup Lookup) string {
	matches := placeholder.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		b.WriteString(valueOf(lookup, s[m[2]:m[3]]))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func valueOf(lookup Lookup, name string) string {
	if lookup == nil {
		return ""
	}
	v, ok := lookup.Get(name)
	if !ok {
		return ""
	}
	return stringForm(v)
}

func stringForm(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		// unquoted YAML timestamps
		return v.Format(dateTimeLayout)
	case float64:
		// JSON numbers decode as float64
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}
