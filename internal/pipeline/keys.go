package pipeline

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectKey names the stored object for one generated variant:
// {prefix}/{run}/{label}_adv_{index}_{variant}{ext}.
func ObjectKey(prefix string, runID uuid.UUID, label string, index, variant int, ext string) string {
	name := fmt.Sprintf("%s_adv_%d_%d%s", SanitizeLabel(label), index, variant, ext)
	return path.Join(strings.Trim(prefix, "/"), runID.String(), name)
}

// SanitizeLabel replaces every character outside [A-Za-z0-9_-] with an underscore.
func SanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, label)
}
