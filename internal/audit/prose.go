package audit

import (
	"regexp"
	"strings"
)

var (
	reFence      = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$\\n?")
	reImageMD    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	reImageHTML  = regexp.MustCompile(`(?is)<img[^>]*>`)
	reComment    = regexp.MustCompile(`(?s)<!--.*?-->`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
)

// CleanProse tidies free text returned by the model before it is stored as a
// reply: code fences around the whole answer, images and HTML comments are
// dropped and paragraph breaks are capped at one blank line.
func CleanProse(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reFence.ReplaceAllString(text, "")
	text = reImageMD.ReplaceAllString(text, "")
	text = reImageHTML.ReplaceAllString(text, "")
	text = reComment.ReplaceAllString(text, "")
	text = reBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
