package importer

import (
	"strings"
)

// Slugify derives the URL-safe slug for a catalog name: lowercased, runs of
// whitespace collapsed to a single hyphen, anything else that is not
// alphanumeric or a hyphen dropped. The slug is deterministic so re-imports
// of the same location name always map to the same slug.
func Slugify(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	hyphenated := strings.Join(strings.Fields(lower), "-")

	var b strings.Builder
	b.Grow(len(hyphenated))
	for _, r := range hyphenated {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
