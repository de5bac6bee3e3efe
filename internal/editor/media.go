package editor

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/scribe/internal/document"
)

// toggle-link {url}. An empty url removes the link.
func toggleLink(ctx Context) (Result, error) {
	url := strings.TrimSpace(ctx.Payload.String("url"))
	return styled(ctx, func(t *document.Tree, sel document.Selection) (*document.Tree, document.Selection, error) {
		return document.ToggleLink(t, sel, url)
	})
}

func selectedImage(ctx Context, cmd string) (*document.Node, error) {
	img, ok := selectedNode(ctx, document.KindImage)
	if !ok {
		return nil, notApplicable(cmd, "select an image first")
	}
	return img, nil
}

func replaceImage(ctx Context, img, next *document.Node) (Result, error) {
	if document.Equal(img, next) {
		return Result{Tree: ctx.Tree()}, nil
	}
	t, err := ctx.Tree().Replace(img.Key, next)
	if err != nil {
		return Result{}, err
	}
	return Result{Tree: t, Selection: ctx.Selection}, nil
}

// set-image-alignment {alignment: left|center|right}
func setImageAlignment(ctx Context) (Result, error) {
	img, err := selectedImage(ctx, CmdSetImageAlignment)
	if err != nil {
		return Result{}, err
	}
	next := img.Clone()
	next.Attrs.Alignment = document.Alignment(ctx.Payload.String("alignment"))
	if err := check("alignment", string(next.Attrs.Alignment), validation.Required); err != nil {
		return Result{}, err
	}
	return replaceImage(ctx, img, next)
}

// resize-image {width, height, maxWidth}. Missing fields keep their value;
// zero means "natural size".
func resizeImage(ctx Context) (Result, error) {
	img, err := selectedImage(ctx, CmdResizeImage)
	if err != nil {
		return Result{}, err
	}
	next := img.Clone()
	for field, dst := range map[string]*int{
		"width":    &next.Attrs.Width,
		"height":   &next.Attrs.Height,
		"maxWidth": &next.Attrs.MaxWidth,
	} {
		if *dst, err = ctx.Payload.Int(field, *dst); err != nil {
			return Result{}, err
		}
	}
	return replaceImage(ctx, img, next)
}

// delete-node removes the selected node, or the top-level block holding a
// caret. A document is never left without a block.
func deleteNode(ctx Context) (Result, error) {
	t := ctx.Tree()
	key := anchorKey(ctx.Selection)
	if _, ok := ctx.Selection.(*document.RangeSelection); ok {
		top := t.TopLevel(key)
		if top == nil {
			return Result{}, notApplicable(CmdDeleteNode, "nothing to delete")
		}
		key = top.Key
	}
	parent, err := t.Parent(key)
	if err != nil {
		return Result{}, err
	}
	if parent == nil {
		return Result{}, notApplicable(CmdDeleteNode, "the root cannot be deleted")
	}
	index, _ := t.IndexOf(key)

	nt, err := t.Remove(key)
	if err != nil {
		return Result{}, err
	}
	if len(nt.Root().Children) == 0 {
		if nt, err = nt.Append(nt.Root().Key, document.MustNew(document.KindParagraph, document.Attrs{})); err != nil {
			return Result{}, err
		}
	}
	holder, _ := nt.Resolve(parent.Key)
	if holder == nil || len(holder.Children) == 0 {
		return Result{Tree: nt, Selection: document.InitialSelection(nt)}, nil
	}
	near := holder.Children[min(index, len(holder.Children)-1)]
	return Result{Tree: nt, Selection: caretAt(nt, near.Key)}, nil
}
