package senti

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRe = regexp.MustCompile(`\s+`)
	tagRe   = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

	quoteReplacer = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)
)

//CleanText reduces HTML fragments to their text, applies NFKC normalization,
//folds curly quotes and collapses whitespace.
func CleanText(s string) string {
	if tagRe.MatchString(s) {
		if doc, e := goquery.NewDocumentFromReader(strings.NewReader(s)); e == nil {
			s = doc.Text()
		}
	}
	s = norm.NFKC.String(s)
	s = strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	return quoteReplacer.Replace(s)
}
