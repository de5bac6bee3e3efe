package editor

import (
	"strings"

	"github.com/starford/scribe/internal/document"
	"github.com/starford/scribe/internal/highlight"
)

// inlineParts splits a text-bearing block into runs of inline content, one
// per resulting block: list items become separate parts, quotes and code
// collapse into one. ok is false for blocks that hold no text, and for
// quotes holding such a block.
func inlineParts(n *document.Node) (parts [][]*document.Node, ok bool) {
	switch n.Kind {
	case document.KindParagraph, document.KindHeading:
		return [][]*document.Node{n.Children}, true
	case document.KindCodeBlock:
		return [][]*document.Node{highlight.Plain(n).Children}, true
	case document.KindQuote:
		var part []*document.Node
		for _, c := range n.Children {
			if !c.IsBlock() {
				part = append(part, c)
				continue
			}
			sub, ok := inlineParts(c)
			if !ok {
				// Media inside a quote cannot be flattened into text.
				return nil, false
			}
			for _, p := range sub {
				if len(part) > 0 {
					part = append(part, document.Text("\n"))
				}
				part = append(part, p...)
			}
		}
		return [][]*document.Node{part}, true
	case document.KindList:
		for _, item := range n.Children {
			var part []*document.Node
			var nested [][]*document.Node
			for _, c := range item.Children {
				if c.Kind == document.KindList {
					sub, _ := inlineParts(c)
					nested = append(nested, sub...)
					continue
				}
				part = append(part, c)
			}
			parts = append(parts, part)
			parts = append(parts, nested...)
		}
		return parts, true
	}
	return nil, false
}

// selectedTextBlocks returns the top-level blocks under the selection and
// fails when one of them holds no text.
func selectedTextBlocks(ctx Context, cmd string) ([]*document.Node, error) {
	blocks, err := document.SelectedBlocks(ctx.Tree(), ctx.Selection)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, notApplicable(cmd, "no block selected")
	}
	for _, b := range blocks {
		if _, ok := inlineParts(b); !ok {
			return nil, notApplicable(cmd, "%s cannot be reformatted", b.Kind)
		}
	}
	return blocks, nil
}

// retype turns every selected block into blocks of kind with attrs. The
// first resulting block keeps the original key so a caret on it survives.
func retype(ctx Context, cmd string, kind document.Kind, attrs document.Attrs) (Result, error) {
	blocks, err := selectedTextBlocks(ctx, cmd)
	if err != nil {
		return Result{}, err
	}
	t := ctx.Tree()
	for _, b := range blocks {
		if b.Kind == kind && b.Attrs == attrs {
			continue
		}
		parts, _ := inlineParts(b)
		if len(parts) == 0 {
			parts = [][]*document.Node{nil}
		}
		idx, err := t.IndexOf(b.Key)
		if err != nil {
			return Result{}, err
		}
		for i, part := range parts {
			n := &document.Node{Kind: kind, Key: b.Key, Attrs: attrs, Children: part}
			if i == 0 {
				t, err = t.Replace(b.Key, n)
			} else {
				n.Key = document.NewKey()
				t, err = t.Insert(t.Root().Key, idx+i, n)
			}
			if err != nil {
				return Result{}, err
			}
		}
	}
	if t == ctx.Tree() {
		return Result{Tree: t}, nil
	}
	return Result{Tree: t, Selection: keepOr(t, ctx.Selection, blocks[0].Key)}, nil
}

func formatParagraph(ctx Context) (Result, error) {
	return retype(ctx, CmdFormatParagraph, document.KindParagraph, document.Attrs{})
}

// format-heading {level: 1-3}
func formatHeading(ctx Context) (Result, error) {
	level, err := ctx.Payload.Int("level", 1)
	if err != nil {
		return Result{}, err
	}
	if _, err := document.Heading(level); err != nil {
		return Result{}, err
	}
	return retype(ctx, CmdFormatHeading, document.KindHeading, document.Attrs{Level: level})
}

func formatQuote(ctx Context) (Result, error) {
	return retype(ctx, CmdFormatQuote, document.KindQuote, document.Attrs{})
}

// format-list {listType: bullet|number}. Applying the type a selected list
// already has turns it back into paragraphs.
func formatList(ctx Context) (Result, error) {
	lt := document.ListType(ctx.Payload.String("listType"))
	if lt == "" {
		lt = document.ListBullet
	}
	if _, err := document.New(document.KindList, document.Attrs{ListType: lt}); err != nil {
		return Result{}, err
	}
	blocks, err := selectedTextBlocks(ctx, CmdFormatList)
	if err != nil {
		return Result{}, err
	}
	t := ctx.Tree()

	if len(blocks) == 1 && blocks[0].Kind == document.KindList {
		list := blocks[0]
		if list.Attrs.ListType == lt {
			return retype(ctx, CmdFormatList, document.KindParagraph, document.Attrs{})
		}
		changed := list.Clone()
		changed.Attrs.ListType = lt
		if lt == document.ListNumber && changed.Attrs.Start == 0 {
			changed.Attrs.Start = 1
		}
		nt, err := t.Replace(list.Key, changed)
		if err != nil {
			return Result{}, err
		}
		return Result{Tree: nt, Selection: ctx.Selection}, nil
	}

	attrs := document.Attrs{ListType: lt}
	if lt == document.ListNumber {
		attrs.Start = 1
	}
	var items []*document.Node
	for _, b := range blocks {
		parts, _ := inlineParts(b)
		for _, part := range parts {
			item, err := document.New(document.KindListItem, document.Attrs{}, part...)
			if err != nil {
				return Result{}, err
			}
			items = append(items, item)
		}
	}
	list, err := document.New(document.KindList, attrs, items...)
	if err != nil {
		return Result{}, err
	}
	if t, err = t.Replace(blocks[0].Key, list); err != nil {
		return Result{}, err
	}
	for _, b := range blocks[1:] {
		if t, err = t.Remove(b.Key); err != nil {
			return Result{}, err
		}
	}
	return Result{Tree: t, Selection: keepOr(t, ctx.Selection, list.Key)}, nil
}

// format-code-block {language}. The selected blocks are merged into one
// code block, one line per block.
func formatCodeBlock(ctx Context) (Result, error) {
	lang := strings.ToLower(strings.TrimSpace(ctx.Payload.String("language")))
	if lang == "" {
		lang = highlight.DefaultLanguage
	}
	blocks, err := selectedTextBlocks(ctx, CmdFormatCodeBlock)
	if err != nil {
		return Result{}, err
	}
	allCode := true
	var lines []string
	for _, b := range blocks {
		if b.Kind != document.KindCodeBlock {
			allCode = false
		}
		parts, _ := inlineParts(b)
		for _, part := range parts {
			var sb strings.Builder
			for _, n := range part {
				sb.WriteString(n.TextContent())
			}
			lines = append(lines, sb.String())
		}
	}
	if allCode {
		return Result{Tree: ctx.Tree()}, nil
	}

	code, err := document.New(document.KindCodeBlock, document.Attrs{Language: lang})
	if err != nil {
		return Result{}, err
	}
	code.Key = blocks[0].Key
	if text := strings.Join(lines, "\n"); text != "" {
		code.Children = []*document.Node{document.Text(text)}
		if ctx.Highlight {
			code = highlight.Block(code)
		}
	}

	t, err := ctx.Tree().Replace(blocks[0].Key, code)
	if err != nil {
		return Result{}, err
	}
	for _, b := range blocks[1:] {
		if t, err = t.Remove(b.Key); err != nil {
			return Result{}, err
		}
	}
	return Result{Tree: t, Selection: caretAt(t, code.Key)}, nil
}

// set-code-language {language}. The selection must be inside a code block.
func setCodeLanguage(ctx Context) (Result, error) {
	code := closest(ctx, document.KindCodeBlock)
	if code == nil {
		return Result{}, notApplicable(CmdSetCodeLanguage, "selection is not inside a code block")
	}
	lang := strings.ToLower(strings.TrimSpace(ctx.Payload.String("language")))
	if lang == code.Attrs.Language {
		return Result{Tree: ctx.Tree()}, nil
	}
	next := code.Clone()
	next.Attrs.Language = lang
	if err := document.ValidateAttrs(next); err != nil {
		return Result{}, err
	}
	if ctx.Highlight {
		next = highlight.Block(next)
	}
	t, err := ctx.Tree().Replace(code.Key, next)
	if err != nil {
		return Result{}, err
	}
	return Result{Tree: t, Selection: keepOr(t, ctx.Selection, code.Key)}, nil
}

// highlight-code re-tokenises the code block under the selection.
func highlightCode(ctx Context) (Result, error) {
	code := closest(ctx, document.KindCodeBlock)
	if code == nil {
		return Result{}, notApplicable(CmdHighlightCode, "selection is not inside a code block")
	}
	next := highlight.Block(code)
	if document.Equal(next, code) {
		return Result{Tree: ctx.Tree()}, nil
	}
	t, err := ctx.Tree().Replace(code.Key, next)
	if err != nil {
		return Result{}, err
	}
	return Result{Tree: t, Selection: keepOr(t, ctx.Selection, code.Key)}, nil
}
