package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	nonUpperPattern = regexp.MustCompile(`[^A-Z]`)
	nonNamePattern  = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
)

// IsValidRosterID strips everything that is not an uppercase ASCII letter and
// accepts the input if exactly four letters remain. "AB-CD" is therefore valid.
func IsValidRosterID(s string) bool {
	return len(CleanRosterID(s)) == RosterIDLength
}

// CleanRosterID returns the letters IsValidRosterID looks at.
func CleanRosterID(s string) string {
	return strings.TrimSpace(nonUpperPattern.ReplaceAllString(s, ""))
}

// IsValidEventID accepts only the canonical lower-case string of a version 4 UUID.
func IsValidEventID(s string) bool {
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	if id.Version() != 4 || id.Variant() != uuid.RFC4122 {
		return false
	}
	return id.String() == s
}

// SanitizeName keeps ASCII letters, digits and spaces, then trims.
func SanitizeName(s string) string {
	return strings.TrimSpace(nonNamePattern.ReplaceAllString(s, ""))
}

// FilterNames sanitizes every entry, dropping empties and exact duplicates.
// The first occurrence of a name keeps its position.
func FilterNames(raw []string) []string {
	filtered := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, name := range raw {
		cleaned := SanitizeName(name)
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		filtered = append(filtered, cleaned)
	}
	return filtered
}

// SplitNames splits a comma separated participant list. Entries are not cleaned here.
func SplitNames(s string) []string {
	return strings.Split(s, ",")
}
