package recipes

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxSlugLength = 80

// Slugify lowercases a title and joins its letter and digit runs with dashes:
// "Crème Brûlée (Easy!)" becomes "creme-brulee-easy". Accents are folded by
// NFD decomposition and dropping the combining marks.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFD.String(strings.ToLower(title)) {
		if b.Len() >= maxSlugLength {
			break
		}
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "recipe"
	}
	return slug
}

// slugWithID disambiguates a slug that is already taken.
func slugWithID(slug string, id int) string {
	return slug + "-" + strconv.Itoa(id)
}
