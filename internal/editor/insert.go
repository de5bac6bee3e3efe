package editor

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/scribe/internal/codec"
	"github.com/starford/scribe/internal/document"
	"github.com/starford/scribe/internal/highlight"
)

// Defaults for inserted nodes.
const (
	DefaultTableRows    = 3
	DefaultTableColumns = 3
	MaxTableRows        = 20
	MaxTableColumns     = 10
	DefaultImageWidth   = 500
)

// insert-text {text}
func insertText(ctx Context) (Result, error) {
	if !ctx.Payload.Has("text") {
		return Result{}, payloadError("text", "is required")
	}
	return styled(ctx, func(t *document.Tree, sel document.Selection) (*document.Tree, document.Selection, error) {
		return document.InsertText(t, sel, ctx.Payload.String("text"))
	})
}

// insert-node {kind, ...kind attributes}
func insertNode(ctx Context) (Result, error) {
	kind := document.Kind(ctx.Payload.String("kind"))
	if !document.IsBlockKind(kind) {
		return Result{}, payloadError("kind", "must be a block kind")
	}
	return insertKind(kind)(ctx)
}

// insertKind builds the handler inserting a new block of kind after the
// block holding the selection.
func insertKind(kind document.Kind) Handler {
	return func(ctx Context) (Result, error) {
		n, err := buildBlock(kind, ctx.Payload)
		if err != nil {
			return Result{}, err
		}
		return insertBlock(ctx, "insert-"+string(kind), n)
	}
}

// buildBlock creates a block of kind from payload attributes.
func buildBlock(kind document.Kind, p Payload) (*document.Node, error) {
	switch kind {
	case document.KindParagraph, document.KindQuote, document.KindSeparator:
		return document.New(kind, document.Attrs{})
	case document.KindHeading:
		level, err := p.Int("level", 1)
		if err != nil {
			return nil, err
		}
		return document.Heading(level)
	case document.KindCodeBlock:
		lang := strings.ToLower(p.String("language"))
		if lang == "" {
			lang = highlight.DefaultLanguage
		}
		return document.New(kind, document.Attrs{Language: lang})
	case document.KindList:
		lt := document.ListType(p.String("listType"))
		if lt == "" {
			lt = document.ListBullet
		}
		attrs := document.Attrs{ListType: lt}
		if lt == document.ListNumber {
			attrs.Start = 1
		}
		return document.New(kind, attrs, document.MustNew(document.KindListItem, document.Attrs{}))
	case document.KindImage:
		return buildImage(p)
	case document.KindVideoEmbed:
		id := codec.YouTubeID(p.String("url"))
		if id == "" {
			id = codec.YouTubeID(p.String("videoId"))
		}
		if id == "" {
			return nil, payloadError("url", "is not a YouTube video")
		}
		return document.New(kind, document.Attrs{VideoID: id})
	case document.KindTable:
		rows, err := p.Int("rows", DefaultTableRows)
		if err != nil {
			return nil, err
		}
		cols, err := p.Int("columns", DefaultTableColumns)
		if err != nil {
			return nil, err
		}
		if err := check("rows", rows, validation.Required, validation.Min(1), validation.Max(MaxTableRows)); err != nil {
			return nil, err
		}
		if err := check("columns", cols, validation.Required, validation.Min(1), validation.Max(MaxTableColumns)); err != nil {
			return nil, err
		}
		return document.NewTable(rows, cols, p.Bool("headerRow", true))
	}
	return nil, payloadError("kind", "cannot insert "+string(kind))
}

func buildImage(p Payload) (*document.Node, error) {
	attrs := document.Attrs{
		Src:       p.String("src"),
		Alt:       p.String("altText"),
		Alignment: document.Alignment(p.String("alignment")),
	}
	var err error
	if attrs.Width, err = p.Int("width", 0); err != nil {
		return nil, err
	}
	if attrs.Height, err = p.Int("height", 0); err != nil {
		return nil, err
	}
	if attrs.MaxWidth, err = p.Int("maxWidth", DefaultImageWidth); err != nil {
		return nil, err
	}
	if attrs.Alignment == "" {
		attrs.Alignment = document.AlignCenter
	}
	return document.New(document.KindImage, attrs)
}

// insertBlock places n after the top-level block holding a collapsed or
// node selection. An empty paragraph at that spot is replaced instead.
func insertBlock(ctx Context, cmd string, n *document.Node) (Result, error) {
	if rs, ok := ctx.Selection.(*document.RangeSelection); ok && !rs.IsCollapsed() {
		return Result{}, notApplicable(cmd, "needs a collapsed or block-level selection")
	}
	t := ctx.Tree()
	root := t.Root()
	key := anchorKey(ctx.Selection)

	var index int
	replace := false
	if key == root.Key {
		index = ctx.Selection.(*document.RangeSelection).Anchor.Offset
	} else {
		top := t.TopLevel(key)
		if top == nil {
			return Result{}, notApplicable(cmd, "selection is outside the document body")
		}
		i, err := t.IndexOf(top.Key)
		if err != nil {
			return Result{}, err
		}
		index = i + 1
		if top.Kind == document.KindParagraph && len(top.Children) == 0 {
			index, replace = i, true
		}
	}

	var err error
	if replace {
		t, err = t.Replace(root.Children[index].Key, n)
	} else {
		t, err = t.Insert(root.Key, index, n)
	}
	if err != nil {
		return Result{}, err
	}
	if !document.IsTextBlock(n.Kind) && index == len(t.Root().Children)-1 {
		if t, err = t.Append(t.Root().Key, document.MustNew(document.KindParagraph, document.Attrs{})); err != nil {
			return Result{}, err
		}
	}

	switch {
	case n.Kind == document.KindTable:
		return Result{Tree: t, Selection: caretAt(t, n.Children[0].Children[0].Children[0].Key)}, nil
	case n.Kind == document.KindList:
		return Result{Tree: t, Selection: caretAt(t, n.Children[0].Key)}, nil
	case document.IsLeaf(n.Kind):
		return Result{Tree: t, Selection: document.Select(n.Key)}, nil
	}
	return Result{Tree: t, Selection: caretAt(t, n.Key)}, nil
}
