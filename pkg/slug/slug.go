package slug

import (
	"regexp"
	"strings"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	// Latin letters with diacritics seen in product and category names.
	transliterate = strings.NewReplacer(
		"à", "a", "á", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
		"ç", "c", "è", "e", "é", "e", "ê", "e", "ë", "e",
		"ì", "i", "í", "i", "î", "i", "ï", "i", "ı", "i",
		"ñ", "n", "ò", "o", "ó", "o", "ô", "o", "ö", "o", "õ", "o", "ø", "o",
		"ù", "u", "ú", "u", "û", "u", "ü", "u", "ý", "y", "ÿ", "y",
		"ß", "ss", "æ", "ae", "œ", "oe", "ğ", "g", "ş", "s",
		"&", " and ", "+", " plus ",
	)
)

// Generate turns a display name into a URL slug, e.g.
// "iPhone 15 Pro Max" → "iphone-15-pro-max", "AirPods + Case" → "airpods-plus-case".
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = transliterate.Replace(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
