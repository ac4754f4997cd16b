package store

import "strings"

// KeyPrefix namespaces report keys.
const KeyPrefix = "batch:report"

// Key returns the Redis key of a report.
func Key(id string) string {
	return KeyPrefix + ":" + strings.TrimSpace(id)
}

// ObjectKey returns the archive object key of a report, e.g.
// "reports/check-mc/<id>.csv".
func ObjectKey(prefix, operation, id string) string {
	parts := make([]string, 0, 3)
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, operation, id+".csv")
	return strings.Join(parts, "/")
}
