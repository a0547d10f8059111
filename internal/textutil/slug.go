package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLength = 60
	fallbackSlug  = "untitled"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces     = regexp.MustCompile(`\s+`)
)

// foldDiacritics strips combining marks after canonical decomposition so
// "café" slugs as "cafe" instead of "caf".
func foldDiacritics(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return folded
}

// Slug converts a title into a lowercase, hyphenated filename segment of at
// most 60 characters. Titles with no usable characters become "untitled".
func Slug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = foldDiacritics(slug)
	slug = slugDisallowed.ReplaceAllString(slug, "")
	slug = slugSpaces.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}
