package utils

import "testing"

func TestExtractObjectKeyFromURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://storage.googleapis.com/catalog-assets/brands/3/logos/x.png", "brands/3/logos/x.png"},
		{"https://catalog-assets.storage.googleapis.com/brands/3/logos/x.png", "brands/3/logos/x.png"},
		{"gs://catalog-assets/brands/3/logos/x.png", "brands/3/logos/x.png"},
		{"brands/3/logos/x.png", "brands/3/logos/x.png"},
		{"brands/../secrets", ""},
		{"", ""},
		{"https://example.com/not-gcs.png", ""},
	}
	for _, tc := range cases {
		if got := ExtractObjectKeyFromURL(tc.raw); got != tc.want {
			t.Fatalf("ExtractObjectKeyFromURL(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
