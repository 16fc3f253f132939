package event

import "time"

// Source timestamp layouts, in the order we try them. The warehouse exports
// Z-suffixed RFC3339; the space-separated form shows up in older exports.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTime parses a source timestamp string. Returns false when no layout
// matches; callers drop the row and count it rather than failing the batch.
func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseTime is the exported form used by stages that read timestamps out of
// raw payload rows (the diff engine's version chains).
func ParseTime(s string) (time.Time, bool) {
	return parseTime(s)
}

// TrimEventPrefix strips the "storage." namespace the source prepends to
// table event names, so significance matching sees bare names.
func TrimEventPrefix(name string) string {
	const prefix = "storage."
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		return name[len(prefix):]
	}
	return name
}
