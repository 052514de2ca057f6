package tools

import (
	"encoding/json"
	"regexp"
)

// bareKeyRegexp matches unquoted object keys, a malformation small models
// produce regularly. Compiled once at package init.
var bareKeyRegexp = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

// NormalizeArgs parses raw tool-call argument text. Normalization order:
// strict JSON parse, then a repair pass that quotes bare object keys, then
// an empty object. It never fails; the tool is always invoked.
func NormalizeArgs(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err == nil && args != nil {
		return args
	}

	repaired := repairArgs(string(raw))
	if err := json.Unmarshal([]byte(repaired), &args); err == nil && args != nil {
		return args
	}

	return map[string]any{}
}

// repairArgs quotes bare object keys, e.g. {query: "x"} -> {"query": "x"}.
func repairArgs(raw string) string {
	return bareKeyRegexp.ReplaceAllString(raw, `$1"$2":`)
}
