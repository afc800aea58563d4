// Package sqlutil provides small helpers for building SQLite statements.
package sqlutil

import "strings"

// QuoteIdent quotes an identifier for use in a SQLite statement.
// Embedded double quotes are escaped by doubling them.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteIdents quotes each identifier in names.
func QuoteIdents(names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = QuoteIdent(name)
	}
	return quoted
}

// JoinIdents quotes each identifier and joins them with ", " for use
// in a column list.
func JoinIdents(names []string) string {
	return strings.Join(QuoteIdents(names), ", ")
}

// QuoteString quotes a string literal for embedding in a SQLite
// statement where parameter binding is not available, such as
// VACUUM INTO. Embedded single quotes are escaped by doubling them.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Placeholders returns n comma-separated "?" markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
