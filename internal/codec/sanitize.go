package codec

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
)

var (
	contentPolicy = newContentPolicy()
	stripPolicy   = bluemonday.StrictPolicy()
	minifier      = newMinifier()
)

func newContentPolicy() *bluemonday.Policy {
	colorRegexp := regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|rgba?\([0-9., %]+\)|[a-zA-Z]+)$`)
	sizeRegexp := regexp.MustCompile(`^\d+(\.\d+)?(px|pt|em|rem|%)$`)
	fontRegexp := regexp.MustCompile(`^[a-zA-Z0-9 ,'"-]+$`)
	marginRegexp := regexp.MustCompile(`^[0-9a-z .]+$`)

	p := bluemonday.UGCPolicy()
	p.AllowStyles("color", "background-color").Matching(colorRegexp).Globally()
	p.AllowStyles("font-size").Matching(sizeRegexp).Globally()
	p.AllowStyles("font-family").Matching(fontRegexp).Globally()

	p.AllowStyles("max-width").Matching(sizeRegexp).OnElements("img")
	p.AllowStyles("margin").Matching(marginRegexp).OnElements("img")
	p.AllowStyles("float").Matching(regexp.MustCompile(`^(left|right)$`)).OnElements("img")
	p.AllowStyles("display").Matching(regexp.MustCompile(`^block$`)).OnElements("img")

	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[a-z0-9+#._-]+$`)).OnElements("code")
	p.AllowAttrs("data-language").Matching(regexp.MustCompile(`^[a-z0-9+#._-]+$`)).OnElements("code")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^token [a-z-]+$`)).OnElements("span")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^video-embed$`)).OnElements("div")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")

	p.AllowElements("iframe")
	p.AllowAttrs("src").Matching(regexp.MustCompile(`^https://www\.youtube-nocookie\.com/embed/[a-zA-Z0-9_-]{11}$`)).OnElements("iframe")
	p.AllowAttrs("width", "height", "frameborder").Matching(bluemonday.Integer).OnElements("iframe")
	p.AllowAttrs("allowfullscreen").OnElements("iframe")
	p.AllowAttrs("data-lexical-youtube").Matching(regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)).OnElements("iframe")
	return p
}

func newMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &minhtml.Minifier{KeepEndTags: true, KeepQuotes: true})
	return m
}

// Sanitize filters rendered or imported HTML through the user-content
// policy.
func Sanitize(s string) string {
	return contentPolicy.Sanitize(s)
}

// StripTags removes every tag and keeps the text.
func StripTags(s string) string {
	return stripPolicy.Sanitize(s)
}

// Minify compacts an HTML fragment.
func Minify(s string) (string, error) {
	return minifier.String("text/html", s)
}
