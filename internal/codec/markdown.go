package codec

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/starford/scribe/internal/document"
)

// ToMarkdown exports s as Markdown. The export is lossy: inline styles,
// image sizes and alignment, and cell backgrounds have no Markdown form and
// are dropped.
func ToMarkdown(s *document.EditorState) (string, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	for i, block := range s.Root().Children {
		if i > 0 {
			doc.PlainText("")
		}
		writeBlock(doc, block)
	}
	if err := doc.Build(); err != nil {
		return "", fmt.Errorf("build markdown: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

func writeBlock(doc *md.Markdown, n *document.Node) {
	switch n.Kind {
	case document.KindHeading:
		text := inlineMarkdown(n.Children)
		switch n.Attrs.Level {
		case 1:
			doc.H1(text)
		case 2:
			doc.H2(text)
		default:
			doc.H3(text)
		}
	case document.KindTable:
		if len(n.Children) == 0 {
			return
		}
		header := cellTexts(n.Children[0])
		rows := make([][]string, 0, len(n.Children)-1)
		for _, r := range n.Children[1:] {
			rows = append(rows, cellTexts(r))
		}
		doc.CustomTable(md.TableSet{Header: header, Rows: rows}, md.TableOptions{AutoWrapText: false})
	default:
		doc.PlainText(blockMarkdown(n, ""))
	}
}

func blockMarkdown(n *document.Node, indent string) string {
	switch n.Kind {
	case document.KindParagraph:
		return inlineMarkdown(n.Children)
	case document.KindQuote:
		// Inline runs stay on one line; block children become paragraphs
		// separated by a bare ">" line.
		var parts []string
		var run []*document.Node
		for _, c := range n.Children {
			if !c.IsBlock() {
				run = append(run, c)
				continue
			}
			if len(run) > 0 {
				parts = append(parts, inlineMarkdown(run))
				run = nil
			}
			parts = append(parts, blockMarkdown(c, ""))
		}
		if len(run) > 0 {
			parts = append(parts, inlineMarkdown(run))
		}
		body := strings.Join(parts, "\n\n")
		var b strings.Builder
		for i, line := range strings.Split(body, "\n") {
			if i > 0 {
				b.WriteString("\n")
			}
			line = strings.TrimSuffix(line, "  ")
			if line == "" {
				b.WriteString(">")
				continue
			}
			b.WriteString("> " + line)
		}
		return b.String()
	case document.KindList:
		return listMarkdown(n, indent)
	case document.KindCodeBlock:
		return "```" + n.Attrs.Language + "\n" + n.TextContent() + "\n```"
	case document.KindImage:
		return md.Image(n.Attrs.Alt, n.Attrs.Src)
	case document.KindVideoEmbed:
		return md.Link("YouTube Video", YouTubeWatchURL(n.Attrs.VideoID))
	case document.KindSeparator:
		return "---"
	case document.KindTable:
		var rows []string
		for _, r := range n.Children {
			rows = append(rows, "| "+strings.Join(cellTexts(r), " | ")+" |")
		}
		return strings.Join(rows, "\n")
	}
	return inlineMarkdown(n.Children)
}

func listMarkdown(n *document.Node, indent string) string {
	var b strings.Builder
	num := max(n.Attrs.Start, 1)
	for i, item := range n.Children {
		marker := "- "
		if n.Attrs.ListType == document.ListNumber {
			marker = strconv.Itoa(num+i) + ". "
		}
		var inline []*document.Node
		var nested []*document.Node
		for _, c := range item.Children {
			if c.Kind == document.KindList {
				nested = append(nested, c)
			} else {
				inline = append(inline, c)
			}
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(indent + marker + inlineMarkdown(inline))
		for _, l := range nested {
			b.WriteString("\n" + listMarkdown(l, indent+strings.Repeat(" ", len(marker))))
		}
	}
	return b.String()
}

func cellTexts(row *document.Node) []string {
	out := make([]string, 0, len(row.Children))
	for _, cell := range row.Children {
		var parts []string
		for _, c := range cell.Children {
			switch c.Kind {
			case document.KindText, document.KindLink:
				parts = append(parts, inlineMarkdown([]*document.Node{c}))
			default:
				parts = append(parts, blockMarkdown(c, ""))
			}
		}
		text := strings.Join(parts, " ")
		text = strings.ReplaceAll(text, "|", `\|`)
		out = append(out, strings.ReplaceAll(text, "\n", " "))
	}
	return out
}

func inlineMarkdown(nodes []*document.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case document.KindText:
			b.WriteString(textMarkdown(n))
		case document.KindLink:
			b.WriteString(md.Link(inlineMarkdown(n.Children), n.Attrs.URL))
		}
	}
	return b.String()
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "~", `\~`, "<", `\<`,
)

func textMarkdown(n *document.Node) string {
	if n.Text == "" {
		return ""
	}
	if n.Format.Has(document.FormatCode) {
		return md.Code(n.Text)
	}
	core := strings.TrimSpace(n.Text)
	if core == "" {
		return n.Text
	}
	lead := n.Text[:strings.Index(n.Text, core)]
	trail := n.Text[len(lead)+len(core):]
	out := escapeLineStart(mdEscaper.Replace(core))
	if n.Format.Has(document.FormatItalic) {
		out = md.Italic(out)
	}
	if n.Format.Has(document.FormatBold) {
		out = md.Bold(out)
	}
	if n.Format.Has(document.FormatStrikethrough) {
		out = md.Strikethrough(out)
	}
	if n.Format.Has(document.FormatUnderline) {
		out = "<u>" + out + "</u>"
	}
	out = lead + out + trail
	return strings.ReplaceAll(out, "\n", "  \n")
}

// escapeLineStart protects characters that would open a block construct at
// the start of a line.
func escapeLineStart(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		switch l[0] {
		case '#', '>', '-', '+', '|':
			lines[i] = `\` + l
		}
	}
	return strings.Join(lines, "\n")
}
