// Package cbtoken encodes the match selection that the "match" command carries
// from a shared-match listing back to the bot.
package cbtoken

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
)

const CurrentVersion = 1

var (
	ErrMalformedToken     = errors.New("malformed match token")
	ErrUnsupportedVersion = errors.New("unsupported match token version")
)

// Token selects one match of a target player. Wire form: v1:<match_id>:<target_id>.
type Token struct {
	Version  int
	MatchID  domain.MatchID
	TargetID domain.AccountID
}

func New(matchID domain.MatchID, targetID domain.AccountID) Token {
	return Token{Version: CurrentVersion, MatchID: matchID, TargetID: targetID}
}

func (t Token) String() string {
	return fmt.Sprintf("v%d:%d:%d", t.Version, t.MatchID, t.TargetID)
}

// Parse validates and decodes a token. Every structural problem wraps
// ErrMalformedToken; a well-formed token of another version wraps ErrUnsupportedVersion.
func Parse(s string) (Token, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Token{}, fmt.Errorf("%w: want 3 fields, got %d", ErrMalformedToken, len(parts))
	}
	if len(parts[0]) < 2 || (parts[0][0] != 'v' && parts[0][0] != 'V') {
		return Token{}, fmt.Errorf("%w: missing version", ErrMalformedToken)
	}
	ver, err := strconv.Atoi(parts[0][1:])
	if err != nil || ver <= 0 {
		return Token{}, fmt.Errorf("%w: bad version %q", ErrMalformedToken, parts[0])
	}
	if ver != CurrentVersion {
		return Token{}, fmt.Errorf("%w: v%d", ErrUnsupportedVersion, ver)
	}
	if !digitsOnly(parts[1]) {
		return Token{}, fmt.Errorf("%w: bad match id %q", ErrMalformedToken, parts[1])
	}
	match, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || match == 0 {
		return Token{}, fmt.Errorf("%w: bad match id %q", ErrMalformedToken, parts[1])
	}
	target, ok := domain.ParseAccountID(parts[2])
	if !ok {
		return Token{}, fmt.Errorf("%w: bad target id %q", ErrMalformedToken, parts[2])
	}
	return Token{Version: ver, MatchID: domain.MatchID(match), TargetID: target}, nil
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
