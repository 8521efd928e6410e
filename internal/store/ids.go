package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/starford/cardbox/internal/models"
)

const (
	// maxSuffix bounds the collision search before falling back to a UUID.
	maxSuffix = 1000
	// maxSlugLen keeps record file names well under file system limits.
	maxSlugLen = 96
)

// slugify returns the URL-safe base ID for title, or "" if it has no
// usable characters.
func slugify(title string) string {
	base := slug.Make(title)
	if len(base) > maxSlugLen {
		base = base[:maxSlugLen]
	}
	base = strings.Trim(base, "-_")
	if !models.ValidID(base) {
		return ""
	}
	return base
}

// newID derives a free ID from title. A slug already taken by another
// record gets a numeric suffix; a title with no sluggable characters gets
// a random UUID.
func (s *Store) newID(title string) (string, error) {
	base := slugify(title)
	if base == "" {
		return uuid.NewString(), nil
	}
	candidate := base
	for n := 2; n <= maxSuffix; n++ {
		taken, err := s.repo.Exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return base + "-" + uuid.NewString(), nil
}
