package cbtoken

import (
	"errors"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	tok := New(7712345678, 123456789)
	if tok.String() != "v1:7712345678:123456789" {
		t.Fatalf("unexpected encoding %q", tok.String())
	}
	got, err := Parse(" " + tok.String() + " ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != tok {
		t.Fatalf("got %+v, want %+v", got, tok)
	}
}

func TestParseRejects(t *testing.T) {
	malformed := []string{
		"",
		"match:1:target:2",
		"v1:1",
		"v1:1:2:3",
		"1:1:2",
		"v:1:2",
		"vx:1:2",
		"v1:abc:2",
		"v1:0:2",
		"v1:-1:2",
		"v1:1:0",
		"v1:1:99999999999",
	}
	for _, s := range malformed {
		if _, err := Parse(s); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("Parse(%q) = %v, want ErrMalformedToken", s, err)
		}
	}
	if _, err := Parse("v2:1:2"); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}
