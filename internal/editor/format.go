package editor

import (
	"regexp"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/scribe/internal/document"
)

var (
	colorRule      = validation.Match(regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|rgba?\([0-9., %]+\)|[a-zA-Z]+)$`))
	fontSizeRule   = validation.Match(regexp.MustCompile(`^\d+(\.\d+)?(px|pt|em|rem|%)$`))
	fontFamilyRule = validation.Match(regexp.MustCompile(`^[a-zA-Z0-9 ,'"-]+$`))
)

var styleRules = map[string]validation.Rule{
	document.StyleColor:           colorRule,
	document.StyleBackgroundColor: colorRule,
	document.StyleFontFamily:      fontFamilyRule,
	document.StyleFontSize:        fontSizeRule,
}

// format-text {format: bold|italic|underline|strikethrough|code}
func formatText(ctx Context) (Result, error) {
	f, err := document.ParseFormat(ctx.Payload.String("format"))
	if err != nil {
		return Result{}, err
	}
	return styled(ctx, func(t *document.Tree, sel document.Selection) (*document.Tree, document.Selection, error) {
		return document.ToggleFormat(t, sel, f)
	})
}

// set-style {properties: {css-property: value}}. An empty value removes
// the property.
func setStyle(ctx Context) (Result, error) {
	props, err := ctx.Payload.StringMap("properties")
	if err != nil {
		return Result{}, err
	}
	if len(props) == 0 {
		return Result{}, payloadError("properties", "must not be empty")
	}
	for k, v := range props {
		if !slices.Contains(document.StyleProperties, k) {
			return Result{}, payloadError("properties", "cannot set "+k)
		}
		if err := check(k, v, styleRules[k]); err != nil {
			return Result{}, err
		}
	}
	return styled(ctx, func(t *document.Tree, sel document.Selection) (*document.Tree, document.Selection, error) {
		return document.PatchStyle(t, sel, props)
	})
}

// setStyleProperty builds the single-property commands such as
// set-text-color {color}.
func setStyleProperty(prop, field string, rule validation.Rule) Handler {
	return func(ctx Context) (Result, error) {
		v := ctx.Payload.String(field)
		if err := check(field, v, rule); err != nil {
			return Result{}, err
		}
		return styled(ctx, func(t *document.Tree, sel document.Selection) (*document.Tree, document.Selection, error) {
			return document.PatchStyle(t, sel, map[string]string{prop: v})
		})
	}
}

func clearFormatting(ctx Context) (Result, error) {
	return styled(ctx, document.ClearFormatting)
}
