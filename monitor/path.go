package monitor

import (
	"regexp"
	"strings"
)

var unsafeSourceKeyChar = regexp.MustCompile(`[^A-Za-z0-9_./-]`)

var dotsOnly = regexp.MustCompile(`^\.+$`)

// sanitizeSourceKey renders a metadata manifest's source key safe to use as
// a repository-relative file path. First, every character outside
// [A-Za-z0-9_./-] becomes '_'. Then every '/'-delimited path segment made
// up solely of dots (a traversal attempt like ".." or "...") is rewritten
// to the same number of underscores, defeating the traversal while
// preserving the surrounding '/' separators as structural boundaries.
func sanitizeSourceKey(key string) string {
	safe := unsafeSourceKeyChar.ReplaceAllString(key, "_")

	segments := strings.Split(safe, "/")
	for i, seg := range segments {
		if dotsOnly.MatchString(seg) {
			segments[i] = strings.Repeat("_", len(seg))
		}
	}
	return strings.Join(segments, "/")
}
