// Package tags pulls <name>...</name> sections out of free-text documents.
// The documents are hand-edited, so this is plain string matching and not an
// XML parser: attributes, self-closing tags and entities are not understood.
package tags

import (
	"regexp"
	"strings"
)

var openTag = regexp.MustCompile(`<([^<>/\\]+)>`)

// ExtractOne returns the trimmed body of the first <tag>...</tag> in text.
// Matching is non-greedy, so a repeated tag nested inside itself closes at
// the first inner </tag>.
func ExtractOne(text, tag string) (string, bool) {
	q := regexp.QuoteMeta(tag)
	re, err := regexp.Compile(`(?s)<` + q + `>(.*?)</` + q + `>`)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ExtractAll returns every top-level tag in text keyed by its trimmed name.
// Tags nested inside a matched tag are part of its body and are not reported
// separately. Later duplicates overwrite earlier ones.
func ExtractAll(text string) map[string]string {
	out := make(map[string]string)
	pos := 0
	for pos < len(text) {
		loc := openTag.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		name := text[pos+loc[2] : pos+loc[3]]
		bodyStart := pos + loc[1]
		closing := "</" + name + ">"
		end := strings.Index(text[bodyStart:], closing)
		if end < 0 {
			// unclosed, retry from just past the '<'
			pos += loc[0] + 1
			continue
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(text[bodyStart : bodyStart+end])
		pos = bodyStart + end + len(closing)
	}
	return out
}
