package notification

import "strings"

// ResolvePlaceholders replaces every {key} token in template with values[key].
// Unknown tokens are left untouched. Substituted text is never scanned again,
// so a value containing {other} comes out literally.
func ResolvePlaceholders(template string, values map[string]string) string {
	if strings.TrimSpace(template) == "" || len(values) == 0 {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open+1:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += open + 1

		b.WriteString(rest[:open])
		if value, ok := values[rest[open+1:end]]; ok {
			b.WriteString(value)
			rest = rest[end+1:]
			continue
		}
		// Not a known token: emit the brace and resume right after it so a
		// token nested like "{{name}" is still found.
		b.WriteByte('{')
		rest = rest[open+1:]
	}

	return b.String()
}
