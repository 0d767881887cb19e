package forms

import (
	"sort"
	"strings"
)

// FieldErrors maps a form field name to its messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FieldErrors) Has(field string) bool {
	return len(e[field]) > 0
}

// For is safe on a nil map, which is what templates get on a clean form.
func (e FieldErrors) For(field string) []string {
	if e == nil {
		return nil
	}
	return e[field]
}

// Error flattens the messages for command line output, fields in name order.
func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	for _, field := range fields {
		for _, m := range e[field] {
			if b.Len() > 0 {
				b.WriteString("; ")
			}
			b.WriteString(field + ": " + m)
		}
	}
	return b.String()
}
