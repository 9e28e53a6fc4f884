package announce

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// RenderTemplate substitutes {name} placeholders with values from vars.
// Placeholder names match case-insensitively against lowercase var keys;
// a placeholder without a value is left untouched so a typo in a stored
// template stays visible instead of silently disappearing.
func RenderTemplate(tmpl string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := strings.ToLower(match[1 : len(match)-1])
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}

// JoinProse joins items the way a sentence would: "A", "A and B",
// "A, B and C".
func JoinProse(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
