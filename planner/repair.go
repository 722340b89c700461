package planner

import (
	"regexp"
	"strings"
)

// jsonKeys are the object keys the planner LLM is expected to emit. Local
// models frequently forget to quote them even when explicitly instructed
// to emit valid JSON, so the planner repairs the most common keys before
// attempting to decode.
var jsonKeys = []string{"goal", "steps", "step_id", "action_id", "description", "params", "depends_on"}

var keyPattern = make(map[string]*regexp.Regexp, len(jsonKeys))

func init() {
	for _, k := range jsonKeys {
		keyPattern[k] = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b\s*:`)
	}
}

// extractJSON isolates the outermost { ... } span in raw, mirroring the
// source planner's binary extraction: find the first '{' and the last '}'.
func extractJSON(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// repairKeys quotes any of jsonKeys that appear unquoted before a colon,
// without touching occurrences that are already quoted.
func repairKeys(s string) string {
	for _, k := range jsonKeys {
		pattern := keyPattern[k]
		s = replaceUnquoted(s, pattern, k)
	}
	return s
}

func replaceUnquoted(s string, pattern *regexp.Regexp, key string) string {
	matches := pattern.FindAllStringIndex(s, -1)
	if matches == nil {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && s[start-1] == '"' {
			// already quoted, leave untouched
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(`"` + key + `":`)
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}
