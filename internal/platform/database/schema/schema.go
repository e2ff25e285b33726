// Package schema holds the table and column names of the catalog database.
//
// Stores build their SQL from these definitions.
package schema

import "strings"

// List joins column names for a SELECT or INSERT column list, optionally
// qualifying each one with a table alias.
func List(alias string, columns ...string) string {
	if alias == "" {
		return strings.Join(columns, ", ")
	}
	qualified := make([]string, len(columns))
	for i, column := range columns {
		qualified[i] = alias + "." + column
	}
	return strings.Join(qualified, ", ")
}
