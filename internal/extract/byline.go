package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// bylineWindow limits how far into the body bylines are searched for;
// they sit at the very beginning or the very end of articles.
const bylineWindow = 500

var bylineIndicators = []string{
	`by\s+`,
	`written\s+by\s+`,
	`reported\s+by\s+`,
	`author[:\s]\s*`,
	`correspondent[:\s]\s*`,
	`staff\s+writer[:\s]\s*`,
	`\|\s+`,
}

// namePattern matches First (M.) (van/de/la) Last(-Last). The indicator is
// matched case-insensitively, the name itself is not.
const namePattern = `([A-Z][a-z]+(?:\s+[A-Z]\.)?(?:\s+(?:van|de|la|der|von|bin|al))?\s+[A-Z][a-z]+(?:-[A-Z][a-z]+)?)`

var bylinePatterns = compileBylinePatterns()

func compileBylinePatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(bylineIndicators))
	for _, indicator := range bylineIndicators {
		patterns = append(patterns, regexp.MustCompile(`(?i:`+indicator+`)`+namePattern))
	}
	return patterns
}

// Words that, when present in a match, mean it is not a person's name.
var bylineFalsePositives = []string{
	"news", "times", "post", "reuters", "associated", "press", "agency",
	"today", "yesterday", "tomorrow", "google", "facebook", "twitter",
	"breaking", "exclusive", "update", "latest", "report", "copyright",
}

// Byline scans the title, then the beginning and end of the body, for a
// journalist name introduced by a byline indicator. Returns "" when
// nothing plausible is found.
func Byline(title, content string) string {
	if name := scanByline(title); name != "" {
		return name
	}
	if content == "" {
		return ""
	}

	runes := []rune(content)
	head := string(runes[:min(len(runes), bylineWindow)])
	if name := scanByline(head); name != "" {
		return name
	}

	if len(runes) > bylineWindow {
		tail := string(runes[len(runes)-bylineWindow:])
		if name := scanByline(tail); name != "" {
			return name
		}
	}

	return ""
}

func scanByline(text string) string {
	for _, pattern := range bylinePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if isValidName(match[1]) {
				return match[1]
			}
		}
	}
	return ""
}

func isValidName(name string) bool {
	if len(name) > 40 {
		return false
	}

	lower := strings.ToLower(name)
	for _, fp := range bylineFalsePositives {
		if strings.Contains(lower, fp) {
			return false
		}
	}

	words := strings.Fields(name)
	if len(words) < 1 || len(words) > 4 {
		return false
	}

	capitalized := 0
	for _, word := range words {
		r := []rune(word)
		if unicode.IsUpper(r[0]) {
			capitalized++
		}
	}
	// Lowercase particles (van, de, ...) are allowed, but a name needs at
	// least two capitalized words.
	return capitalized >= 2
}
