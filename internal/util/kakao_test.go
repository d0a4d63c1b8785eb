package util

import (
	"strings"
	"testing"
)

func TestSeeMore(t *testing.T) {
	got := SeeMore(" 매치 1 비교 ", "본문")
	if !strings.HasPrefix(got, "매치 1 비교"+KakaoZeroWidthSpace) {
		t.Fatalf("preview not first: %q", got[:20])
	}
	if !strings.HasSuffix(got, "\n본문") {
		t.Fatalf("body missing")
	}
	if strings.Count(got, KakaoZeroWidthSpace) != KakaoSeeMorePadding {
		t.Fatalf("unexpected padding count")
	}
	if SeeMore("x", "  ") != "  " {
		t.Fatalf("blank body should pass through")
	}
}

func TestSplitLines(t *testing.T) {
	parts := SplitLines([]string{"가나다", "라마", "바사아자"}, 6)
	want := []string{"가나다\n라마", "바사아자"}
	if len(parts) != len(want) {
		t.Fatalf("got %q", parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Fatalf("part %d = %q, want %q", i, parts[i], want[i])
		}
	}
	if got := SplitLines(nil, 10); len(got) != 0 {
		t.Fatalf("empty input should give no messages")
	}
}
