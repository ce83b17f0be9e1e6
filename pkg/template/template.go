// Package template resolves {{name}} placeholders in outgoing message text.
//
// Substitution is literal token replacement: a {{name}} token is replaced
// only when a value for name is known, and unknown tokens are left in the
// text untouched. This is the contract exported bots rely on, so no
// text/template-style evaluation happens here.
package template

import "strings"

// Resolve replaces every {{name}} token in text with vars[name].
func Resolve(text string, vars map[string]string) string {
	if text == "" || len(vars) == 0 {
		return text
	}

	result := text
	for name, value := range vars {
		result = strings.ReplaceAll(result, "{{"+name+"}}", value)
	}

	return result
}

// Merge layers variable maps left to right; later maps win on conflicts.
func Merge(maps ...map[string]string) map[string]string {
	merged := make(map[string]string)

	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}

	return merged
}
