package scraper

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var (
	// Path segments that never name a product
	urlKeywordSegments = map[string]bool{
		"dp": true, "gp": true, "product": true, "products": true, "itm": true,
		"site": true, "p": true, "item": true, "shop": true, "buy": true, "ref": true,
	}
	asinLike    = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	idLike      = regexp.MustCompile(`^[0-9]+(\.p)?$`)
	fileSuffix  = regexp.MustCompile(`\.(html?|php|aspx?|p)$`)
	hasLetter   = regexp.MustCompile(`[A-Za-z]`)
	separatorRe = regexp.MustCompile(`[-_+]+`)
)

// TitleFromURL derives a readable product name from a URL path, falling back
// to "Product from <host>"
func TitleFromURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Hostname() == "" {
		return UnknownProductTitle
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	best := ""
	for _, segment := range segments {
		segment, _ = url.PathUnescape(segment)
		if segment == "" || urlKeywordSegments[strings.ToLower(segment)] {
			continue
		}
		if asinLike.MatchString(segment) || idLike.MatchString(segment) || strings.HasPrefix(segment, "ref=") {
			continue
		}
		segment = fileSuffix.ReplaceAllString(segment, "")
		if !hasLetter.MatchString(segment) {
			continue
		}
		// Slugs carry the most words
		if strings.Count(segment, "-")+strings.Count(segment, "_") >= strings.Count(best, "-")+strings.Count(best, "_") {
			best = segment
		}
	}

	if best == "" {
		return "Product from " + strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	}

	words := strings.Fields(separatorRe.ReplaceAllString(best, " "))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
