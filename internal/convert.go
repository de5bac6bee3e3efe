package internal

import (
	"fmt"

	"github.com/starford/scribe/internal/codec"
	"github.com/starford/scribe/internal/docservice"
)

// ConvertOptions tunes Convert.
type ConvertOptions struct {
	From docservice.Format
	To   docservice.Format
	HTML codec.HTMLOptions
}

// Convert decodes content in one format and encodes it in another. With
// From set to auto the fallback loader picks the source format and any
// recovered load error is returned as a warning.
func Convert(content string, opts ConvertOptions) (out string, warning string, err error) {
	var loaded codec.Loaded
	if opts.From == docservice.FormatAuto || opts.From == "" {
		loaded = codec.Load(content)
	} else {
		st, err := docservice.Decode(opts.From, content)
		if err != nil {
			return "", "", fmt.Errorf("decode %s: %w", opts.From, err)
		}
		loaded.State = st
	}
	if loaded.Err != nil {
		warning = loaded.Err.Error()
	}
	out, err = docservice.Encode(loaded.State, opts.To, opts.HTML)
	if err != nil {
		return "", "", fmt.Errorf("encode %s: %w", opts.To, err)
	}
	return out, warning, nil
}
