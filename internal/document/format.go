package document

import (
	"sort"
	"strings"
)

// Format is the bitset of boolean text formats. Bit values match the Lexical
// editor state so persisted payloads stay compatible.
type Format uint32

// Text formats.
const (
	FormatBold          Format = 1
	FormatItalic        Format = 1 << 1
	FormatStrikethrough Format = 1 << 2
	FormatUnderline     Format = 1 << 3
	FormatCode          Format = 1 << 4

	formatMask = FormatBold | FormatItalic | FormatStrikethrough | FormatUnderline | FormatCode
)

var formatNames = map[string]Format{
	"bold":          FormatBold,
	"italic":        FormatItalic,
	"strikethrough": FormatStrikethrough,
	"underline":     FormatUnderline,
	"code":          FormatCode,
}

// ParseFormat maps a format name ("bold", "italic", ...) to its bit.
func ParseFormat(name string) (Format, error) {
	f, ok := formatNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, newError("format", ErrValidation, "", "unknown text format %q", name)
	}
	return f, nil
}

// Has reports whether every bit of other is set in f.
func (f Format) Has(other Format) bool { return f&other == other }

// Toggle flips the given bits.
func (f Format) Toggle(other Format) Format { return f ^ other }

// Valid reports whether f only uses known bits.
func (f Format) Valid() bool { return f&^formatMask == 0 }

// Style property names applied by the toolbar.
const (
	StyleColor           = "color"
	StyleBackgroundColor = "background-color"
	StyleFontFamily      = "font-family"
	StyleFontSize        = "font-size"
)

// StyleProperties lists the inline style properties the editor manages.
var StyleProperties = []string{StyleColor, StyleBackgroundColor, StyleFontFamily, StyleFontSize}

// Style maps CSS property names to values. A nil Style is empty.
type Style map[string]string

// ParseStyle parses a CSS declaration list such as
// "color: #F97316; background-color: #BFDBFE;".
func ParseStyle(css string) Style {
	if strings.TrimSpace(css) == "" {
		return nil
	}
	out := Style{}
	for _, part := range strings.Split(css, ";") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := strings.TrimSpace(kv[1])
		if k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// String renders the style as a CSS declaration list with sorted property
// names, so equal styles always serialize identically.
func (s Style) String() string {
	if len(s) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(s[k])
		b.WriteByte(';')
	}
	return b.String()
}

// Clone copies s. Empty styles clone to nil.
func (s Style) Clone() Style {
	if len(s) == 0 {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Patch returns a copy of s with props applied; an empty value removes the
// property.
func (s Style) Patch(props map[string]string) Style {
	out := make(Style, len(s)+len(props))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range props {
		k = strings.ToLower(strings.TrimSpace(k))
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Equal compares two styles, treating nil and empty as equal.
func (s Style) Equal(other Style) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
