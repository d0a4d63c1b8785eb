package coplay

import (
	"context"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/opendota"
)

// BuildReport extracts one player's performance from a fetched match.
// ok is false when the player is not in the match.
func (e *Engine) BuildReport(ctx context.Context, d *opendota.MatchDetail, id domain.AccountID) (*domain.PlayerReport, bool) {
	p := d.Player(id)
	if p == nil {
		return nil, false
	}

	slots := p.ItemSlots()
	codes := make([]int, 0, len(slots))
	for _, code := range slots {
		if code != 0 {
			codes = append(codes, code)
		}
	}
	items := e.names.ItemNames(ctx, codes)
	if items == nil {
		items = []string{}
	}

	return &domain.PlayerReport{
		MatchID:     d.MatchID,
		HeroName:    e.names.HeroName(ctx, p.HeroID),
		Kills:       p.Kills,
		Deaths:      p.Deaths,
		Assists:     p.Assists,
		HeroDamage:  p.HeroDamage,
		TowerDamage: p.TowerDamage,
		LastHits:    p.LastHits,
		HeroHealing: p.HeroHealing,
		Items:       items,
		PlayerSlot:  p.PlayerSlot,
		RadiantWin:  d.RadiantWin,
		Duration:    d.Duration,
	}, true
}

// Comparison is the subject's and target's reports for one match.
type Comparison struct {
	Subject *domain.PlayerReport
	Target  *domain.PlayerReport
}

// Compare builds both reports; ok is false if either player is missing.
func (e *Engine) Compare(ctx context.Context, d *opendota.MatchDetail, subject, target domain.AccountID) (Comparison, bool) {
	s, ok := e.BuildReport(ctx, d, subject)
	if !ok {
		return Comparison{}, false
	}
	t, ok := e.BuildReport(ctx, d, target)
	if !ok {
		return Comparison{}, false
	}
	return Comparison{Subject: s, Target: t}, true
}
