// Package drafts imports a directory of Markdown drafts into the document
// store and keeps it in sync while the server runs.
package drafts

import (
	"bytes"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Draft is a parsed Markdown draft.
type Draft struct {
	Title       string
	Kind        string
	Body        string
	Frontmatter map[string]any
}

// Parse splits optional YAML frontmatter from the Markdown body and derives
// the title: the frontmatter "title", else the first level-one heading, else
// the file name without its extension.
func Parse(name string, data []byte) *Draft {
	fm, body := splitFrontmatter(data)
	d := &Draft{Body: body, Frontmatter: fm}
	if s, ok := fm["kind"].(string); ok {
		d.Kind = strings.TrimSpace(s)
	}
	d.Title = deriveTitle(fm, body)
	if d.Title == "" {
		base := path.Base(name)
		d.Title = strings.TrimSuffix(base, path.Ext(base))
	}
	return d
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. Missing or invalid frontmatter leaves the whole input as body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil || fm == nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
