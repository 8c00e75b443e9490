package rows

import "strings"

// Branch relates the current traversal path to the table being materialized.
type Branch int

const (
	// Outside: the path has not reached, or has left, the table.
	Outside Branch = iota
	// At: the path is exactly the table; one row starts here.
	At
	// Inside: the path is within a row of the table.
	Inside
)

func (b Branch) String() string {
	switch b {
	case At:
		return "at"
	case Inside:
		return "inside"
	default:
		return "outside"
	}
}

// Locate classifies path against table. Both are dot-joined field paths.
func Locate(path, table string) Branch {
	if path == table {
		return At
	}
	if len(path) > len(table) && path[len(table)] == '.' && strings.HasPrefix(path, table) {
		return Inside
	}
	return Outside
}
