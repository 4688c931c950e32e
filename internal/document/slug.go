package document

import (
	"fmt"
	"strings"
)

const fallbackSlug = "scene"

// Slug reduces a unit identifier to a filesystem- and module-safe name:
// lowercase ASCII letters, digits and single underscores.
func Slug(id string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	s := strings.TrimSuffix(b.String(), "_")
	if s == "" {
		return fallbackSlug
	}
	// Python module names may not start with a digit.
	if s[0] >= '0' && s[0] <= '9' {
		s = fallbackSlug + "_" + s
	}
	return s
}

// uniqueSlugs tracks issued slugs so two units never share a filesystem name.
type uniqueSlugs map[string]bool

func (u uniqueSlugs) next(id string) string {
	base := Slug(id)
	slug := base
	for n := 2; u[slug]; n++ {
		slug = fmt.Sprintf("%s_%d", base, n)
	}
	u[slug] = true
	return slug
}
