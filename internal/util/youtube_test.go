package util

import "testing"

func TestEmbedURL(t *testing.T) {
	t.Parallel()

	const embed = "https://www.youtube.com/embed/dQw4w9WgXcQ"
	cases := []struct {
		in   string
		want string
	}{
		{"https://youtu.be/dQw4w9WgXcQ", embed},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", embed},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", embed},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", embed},
		{embed, embed},
		{"  " + embed + "  ", embed},
		{"https://vimeo.com/12345 ", "https://vimeo.com/12345"},
		{"https://youtube.com/watch?v=short", "https://youtube.com/watch?v=short"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := EmbedURL(tc.in); got != tc.want {
			t.Fatalf("EmbedURL(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEmbedURL_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"https://example.com/video.mp4",
		" padded ",
		"",
	}
	for _, in := range inputs {
		once := EmbedURL(in)
		if twice := EmbedURL(once); twice != once {
			t.Fatalf("EmbedURL not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestOptionalEmbedURL(t *testing.T) {
	t.Parallel()

	if got := OptionalEmbedURL(""); got != nil {
		t.Fatalf("empty -> %q, want nil", *got)
	}
	got := OptionalEmbedURL("https://youtu.be/dQw4w9WgXcQ")
	if got == nil || *got != "https://www.youtube.com/embed/dQw4w9WgXcQ" {
		t.Fatalf("OptionalEmbedURL=%v", got)
	}
}
