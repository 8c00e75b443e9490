// Package sqlutil provides identifier quoting shared by the MySQL and SQLite stores.
package sqlutil

import (
	"regexp"
	"strings"
)

// maxIdentifierLength is the MySQL limit; SQLite has none, so the stricter one applies.
const maxIdentifierLength = 64

// QuoteIdentifier quotes a table or column name with backticks, doubling any
// embedded backticks. Both MySQL and SQLite accept this quoting.
// Example: "submissions" -> "`submissions`"
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z_][a-zA-Z0-9_]*$")

// IsValidIdentifier reports whether name is safe to use as a configured table
// name: ASCII letters, digits and underscores, not starting with a digit.
func IsValidIdentifier(name string) bool {
	return len(name) <= maxIdentifierLength && validIdentifierRegex.MatchString(name)
}

// QuoteIdentifierSafe quotes an identifier after validating it.
// Configured table names go through here before being spliced into SQL.
func QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(name), nil
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (letters, digits and underscores only, at most 64 characters)"
}
