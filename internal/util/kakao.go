package util

import (
	"strings"
	"unicode/utf8"
)

const (
	// 카카오톡은 약 500자 이후를 '전체보기'로 접는다.
	KakaoSeeMorePadding = 500
	KakaoZeroWidthSpace = "\u200b"
	// Iris 단일 메시지 권장 최대 길이(rune 기준).
	KakaoMaxMessageRunes = 4000
)

// SeeMore 는 미리보기 줄 뒤에 제로폭 문자를 채워 본문을 '전체보기' 안으로 넣는다.
func SeeMore(preview, body string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	preview = strings.TrimSpace(preview)

	var b strings.Builder
	b.Grow(len(preview) + len(body) + KakaoSeeMorePadding*len(KakaoZeroWidthSpace) + 1)
	b.WriteString(preview)
	b.WriteString(strings.Repeat(KakaoZeroWidthSpace, KakaoSeeMorePadding))
	if !strings.HasPrefix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(body)
	return b.String()
}

// SplitLines 는 줄 단위로 maxRunes 를 넘지 않게 메시지를 나눈다. 한 줄이 한도를 넘으면 그 줄만 단독 메시지가 된다.
func SplitLines(lines []string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = KakaoMaxMessageRunes
	}
	var (
		out  []string
		cur  strings.Builder
		size int
	)
	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if size > 0 && size+1+n > maxRunes {
			out = append(out, cur.String())
			cur.Reset()
			size = 0
		}
		if size > 0 {
			cur.WriteByte('\n')
			size++
		}
		cur.WriteString(line)
		size += n
	}
	if size > 0 {
		out = append(out, cur.String())
	}
	return out
}
