package presenter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/coplay"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/msgcat"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/util"
)

func newFormatter(t *testing.T) *Formatter {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	return NewFormatter(cat, " !도타 ", 20)
}

func TestSharedMatchesNone(t *testing.T) {
	f := newFormatter(t)
	out := f.SharedMatches(77, nil)
	if len(out) != 1 || !strings.Contains(out[0], "20판") || !strings.Contains(out[0], "77") {
		t.Fatalf("unexpected none message %q", out)
	}
}

func TestSharedMatchesLines(t *testing.T) {
	f := newFormatter(t)
	out := f.SharedMatches(77, []domain.SharedMatch{
		{MatchID: 11, Relation: domain.RelationTeammate},
		{MatchID: 12, Relation: domain.RelationEnemy},
		{MatchID: 13, Relation: domain.RelationUnknown},
	})
	if len(out) != 1 {
		t.Fatalf("expected one message, got %d", len(out))
	}
	msg := out[0]
	for _, want := range []string{"11 같은 팀", "12 상대 팀", "13 알 수 없음", "!도타 매치 v1:12:77"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing %q in %q", want, msg)
		}
	}
	if strings.Index(msg, "11 ") > strings.Index(msg, "12 ") {
		t.Fatalf("order not preserved")
	}
	if strings.Contains(msg, util.KakaoZeroWidthSpace) {
		t.Fatalf("short list should not fold")
	}
}

func TestSharedMatchesFoldsLongList(t *testing.T) {
	f := newFormatter(t)
	var ms []domain.SharedMatch
	for i := 1; i <= 8; i++ {
		ms = append(ms, domain.SharedMatch{MatchID: domain.MatchID(i), Relation: domain.RelationEnemy})
	}
	out := f.SharedMatches(5, ms)
	if !strings.HasPrefix(out[0], "함께한 매치 8건") || !strings.Contains(out[0], util.KakaoZeroWidthSpace) {
		t.Fatalf("long list should fold under header: %q", out[0][:40])
	}
}

func report(slot int, radiantWin bool, items []string) *domain.PlayerReport {
	return &domain.PlayerReport{
		MatchID: 900, HeroName: "Axe", Kills: 5, Deaths: 2, Assists: 9,
		HeroDamage: 12000, TowerDamage: 300, LastHits: 150, HeroHealing: 0,
		Items: items, PlayerSlot: slot, RadiantWin: radiantWin, Duration: 2399,
	}
}

func TestReport(t *testing.T) {
	f := newFormatter(t)
	cmp := coplay.Comparison{
		Subject: report(130, false, []string{"Blink Dagger", "Blink Dagger"}),
		Target:  report(2, false, []string{}),
	}
	got := f.Report(cmp)
	for _, want := range []string{"매치 ID: 900", "아이템: Blink Dagger, Blink Dagger", "아이템: 없음", "게임 시간: 39분", "승리"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in\n%s", want, got)
		}
	}

	cmp.Subject.PlayerSlot = 0
	if !strings.Contains(f.Report(cmp), "패배") {
		t.Fatalf("radiant subject in a dire win should lose")
	}
}

func TestPresenterReply(t *testing.T) {
	var sent []string
	p := NewPresenter(func(_ context.Context, room, msg string) error {
		if msg == "boom" {
			return errors.New("send failed")
		}
		sent = append(sent, room+":"+msg)
		return nil
	})
	if err := p.Reply(context.Background(), "r", "a", " ", "b"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if len(sent) != 2 || sent[1] != "r:b" {
		t.Fatalf("unexpected sends %v", sent)
	}
	if err := p.Reply(context.Background(), "r", "boom", "c"); err == nil {
		t.Fatalf("expected error")
	}
	if len(sent) != 2 {
		t.Fatalf("must stop after failure")
	}
}
