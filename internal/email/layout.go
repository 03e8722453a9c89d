package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="UTF-8"><title>{{.Title}}</title></head>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>{{.Title}}</h2>
  {{range .Paragraphs}}<p>{{.}}</p>
  {{end}}
</body>
</html>`))

// RenderHTML wraps an already resolved title and body in the mail layout.
// Body text is escaped; blank lines separate paragraphs.
func RenderHTML(title, body string) (string, error) {
	var paragraphs []string
	for _, p := range strings.Split(body, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var buf bytes.Buffer
	err := layout.Execute(&buf, struct {
		Title      string
		Paragraphs []string
	}{title, paragraphs})
	if err != nil {
		return "", fmt.Errorf("failed to render email layout: %w", err)
	}
	return buf.String(), nil
}
