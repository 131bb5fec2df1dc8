package database

import "strings"

// queryVerb extracts the leading SQL keyword, lowercased, for use as a
// metric label.
func queryVerb(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}

// queryTable extracts the primary table name from a statement. Labels
// stay low-cardinality: anything unparseable maps to "unknown".
func queryTable(sql string) string {
	fields := strings.Fields(sql)
	for i, f := range fields {
		switch strings.ToUpper(f) {
		case "FROM", "INTO", "UPDATE":
			if i+1 < len(fields) {
				return strings.Trim(fields[i+1], `"(,`)
			}
		}
	}
	return "unknown"
}
