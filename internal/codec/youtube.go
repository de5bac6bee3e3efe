package codec

import (
	"regexp"
	"strings"
)

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube(?:-nocookie)?\.com/watch\?(?:.*&)?v=)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube(?:-nocookie)?\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
}

var bareVideoID = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// YouTubeID extracts the video id from a watch, short, embed or shorts URL,
// or accepts a bare 11-character id. It returns "" when nothing matches.
func YouTubeID(s string) string {
	s = strings.TrimSpace(s)
	for _, re := range youtubePatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	if bareVideoID.MatchString(s) {
		return s
	}
	return ""
}

// YouTubeWatchURL is the public page of a video, used in Markdown export.
func YouTubeWatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
