package util

import (
	"regexp"
	"strings"
)

const youtubeEmbedPrefix = "https://www.youtube.com/embed/"

// Share-link forms, tried in this order after the embed check.
var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
}

// EmbedURL converts a YouTube watch, youtu.be or shorts link to the embeddable
// form. Links already in embed form and links that carry no recognisable
// video id are returned trimmed but otherwise unchanged. Empty input gives "".
// EmbedURL(EmbedURL(x)) == EmbedURL(x).
func EmbedURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if strings.Contains(u, "youtube.com/embed/") {
		return u
	}
	for _, re := range youtubeIDPatterns {
		if m := re.FindStringSubmatch(u); m != nil {
			return youtubeEmbedPrefix + m[1]
		}
	}
	return u
}

// OptionalEmbedURL is EmbedURL for nullable fields: empty input gives nil.
func OptionalEmbedURL(raw string) *string {
	u := EmbedURL(raw)
	if u == "" {
		return nil
	}
	return &u
}
