package presenter

import (
	"strings"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/cbtoken"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/coplay"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/msgcat"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/util"
)

// 이 줄 수를 넘는 매치 목록은 '전체보기'로 접는다.
const seeMoreLineThreshold = 5

// Formatter renders bot replies from the message catalog.
type Formatter struct {
	cat    *msgcat.Catalog
	prefix string
	limit  int
}

func NewFormatter(cat *msgcat.Catalog, prefix string, recentLimit int) *Formatter {
	return &Formatter{cat: cat, prefix: strings.TrimSpace(prefix), limit: recentLimit}
}

func (f *Formatter) Prefix() string { return f.prefix }

func (f *Formatter) base() map[string]any {
	return map[string]any{"Prefix": f.prefix, "Limit": f.limit}
}

func (f *Formatter) with(kv map[string]any) map[string]any {
	m := f.base()
	for k, v := range kv {
		m[k] = v
	}
	return m
}

// Text renders a catalog key that only needs Prefix and Limit.
func (f *Formatter) Text(key string) string { return f.cat.Text(key, f.base()) }

func (f *Formatter) Help() string { return f.Text("help") }

func (f *Formatter) Registered(id domain.AccountID) string {
	return f.cat.Text("register.ok", f.with(map[string]any{"AccountID": id.String()}))
}

func (f *Formatter) RelationLabel(r domain.Relation) string {
	switch r {
	case domain.RelationTeammate:
		return f.Text("relation.teammate")
	case domain.RelationEnemy:
		return f.Text("relation.enemy")
	default:
		return f.Text("relation.unknown")
	}
}

// SharedMatches renders the result of a check command. Long lists are split
// into several messages; the first one folds under '전체보기'.
func (f *Formatter) SharedMatches(target domain.AccountID, matches []domain.SharedMatch) []string {
	if len(matches) == 0 {
		return []string{f.cat.Text("check.none", f.with(map[string]any{"Target": target.String()}))}
	}

	header := f.cat.Text("check.header", f.with(map[string]any{"Count": len(matches), "Target": target.String()}))
	lines := make([]string, 0, len(matches)+1)
	for _, m := range matches {
		lines = append(lines, f.cat.Text("check.line", f.with(map[string]any{
			"MatchID":  m.MatchID.String(),
			"Relation": f.RelationLabel(m.Relation),
			"Token":    cbtoken.New(m.MatchID, target).String(),
		})))
	}
	lines = append(lines, f.Text("check.footer"))

	if len(matches) <= seeMoreLineThreshold {
		return util.SplitLines(append([]string{header}, lines...), util.KakaoMaxMessageRunes)
	}
	parts := util.SplitLines(lines, util.KakaoMaxMessageRunes-util.KakaoSeeMorePadding-len([]rune(header))-1)
	parts[0] = util.SeeMore(header, parts[0])
	return parts
}

// Report renders the side-by-side comparison for one match. The result line
// follows the subject's side.
func (f *Formatter) Report(cmp coplay.Comparison) string {
	divider := f.Text("report.divider")

	var sb strings.Builder
	sb.WriteString(f.cat.Text("report.header", f.with(map[string]any{"MatchID": cmp.Subject.MatchID.String()})))
	sb.WriteString("\n")
	sb.WriteString(divider)
	sb.WriteString("\n")
	sb.WriteString(f.Text("report.subject_label"))
	sb.WriteString("\n")
	sb.WriteString(f.player(cmp.Subject))
	sb.WriteString("\n")
	sb.WriteString(divider)
	sb.WriteString("\n")
	sb.WriteString(f.Text("report.target_label"))
	sb.WriteString("\n")
	sb.WriteString(f.player(cmp.Target))
	sb.WriteString("\n")
	sb.WriteString(divider)
	sb.WriteString("\n")
	sb.WriteString(f.cat.Text("report.duration", f.with(map[string]any{"Minutes": cmp.Subject.DurationMinutes()})))
	sb.WriteString("\n")
	if cmp.Subject.Won() {
		sb.WriteString(f.Text("report.win"))
	} else {
		sb.WriteString(f.Text("report.lose"))
	}
	return sb.String()
}

func (f *Formatter) player(r *domain.PlayerReport) string {
	items := f.Text("report.no_items")
	if len(r.Items) > 0 {
		items = strings.Join(r.Items, ", ")
	}
	return f.cat.Text("report.player", f.with(map[string]any{
		"Hero":        r.HeroName,
		"Kills":       r.Kills,
		"Deaths":      r.Deaths,
		"Assists":     r.Assists,
		"Items":       items,
		"HeroDamage":  r.HeroDamage,
		"TowerDamage": r.TowerDamage,
		"LastHits":    r.LastHits,
		"Healing":     r.HeroHealing,
	}))
}
