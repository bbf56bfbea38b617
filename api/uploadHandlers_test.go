package api

import "testing"

func TestLogoThumbnailKey(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		{"brands/3/logos/abc.png", "brands/3/logos/thumbnails/abc.jpg"},
		{"brands/3/logos/abc.jpeg", "brands/3/logos/thumbnails/abc.jpg"},
		{"brands/12/logos/no-ext", "brands/12/logos/thumbnails/no-ext.jpg"},
	}
	for _, tc := range cases {
		if got := logoThumbnailKey(tc.key); got != tc.want {
			t.Fatalf("logoThumbnailKey(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}
