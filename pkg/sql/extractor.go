// Package sql provides pure text utilities for working with SQL statements:
// table reference extraction, correction suggestions, code fence stripping,
// and injection screening. Nothing in this package performs I/O.
package sql

import (
	"regexp"
	"strings"
)

// tableRefPattern matches the identifier following FROM or JOIN. Identifiers
// use the Oracle character set (letters, digits, underscore, $, #). A
// schema-qualified reference is captured as a single token including the dot:
// "hr.employees" extracts as HR.EMPLOYEES, not HR. This is a heuristic, not a
// SQL parser; aliases, subqueries, and quoted identifiers are not understood.
var tableRefPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][A-Za-z0-9_$#]*(?:\.[A-Za-z_][A-Za-z0-9_$#]*)?)`)

// ExtractTableIdentifiers returns the table identifiers referenced after
// FROM/JOIN in the given SQL text, uppercased, deduplicated, in the order
// they first appear. Malformed SQL is not an error; whatever matches the
// pattern is returned, possibly nothing.
func ExtractTableIdentifiers(sqlText string) []string {
	matches := tableRefPattern.FindAllStringSubmatch(sqlText, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	identifiers := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.ToUpper(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		identifiers = append(identifiers, name)
	}

	return identifiers
}
