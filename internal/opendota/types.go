package opendota

import "github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"

// MatchSummary is one entry of /players/{id}/recentMatches. Only the id is used.
type MatchSummary struct {
	MatchID domain.MatchID `json:"match_id"`
}

// MatchDetail is the subset of /matches/{id} the bot reads.
type MatchDetail struct {
	MatchID    domain.MatchID   `json:"match_id"`
	RadiantWin bool             `json:"radiant_win"`
	Duration   int              `json:"duration"`
	Players    []PlayerMatchRaw `json:"players"`
}

// PlayerMatchRaw holds per-player fields as the provider returns them.
// Absent or null numbers decode to zero.
type PlayerMatchRaw struct {
	AccountID   domain.AccountID `json:"account_id"`
	HeroID      int              `json:"hero_id"`
	PlayerSlot  int              `json:"player_slot"`
	Kills       int              `json:"kills"`
	Deaths      int              `json:"deaths"`
	Assists     int              `json:"assists"`
	HeroDamage  int              `json:"hero_damage"`
	TowerDamage int              `json:"tower_damage"`
	LastHits    int              `json:"last_hits"`
	HeroHealing int              `json:"hero_healing"`

	Item0       int `json:"item_0"`
	Item1       int `json:"item_1"`
	Item2       int `json:"item_2"`
	Item3       int `json:"item_3"`
	Item4       int `json:"item_4"`
	Item5       int `json:"item_5"`
	Backpack0   int `json:"backpack_0"`
	Backpack1   int `json:"backpack_1"`
	Backpack2   int `json:"backpack_2"`
	ItemNeutral int `json:"item_neutral"`
}

// ItemSlots returns inventory, backpack and neutral codes in fixed slot order.
func (p *PlayerMatchRaw) ItemSlots() [10]int {
	return [10]int{
		p.Item0, p.Item1, p.Item2, p.Item3, p.Item4, p.Item5,
		p.Backpack0, p.Backpack1, p.Backpack2,
		p.ItemNeutral,
	}
}

// Player finds the raw record for an account, or nil. Anonymous players
// decode with a zero account id, so zero never matches.
func (d *MatchDetail) Player(id domain.AccountID) *PlayerMatchRaw {
	if d == nil || id == 0 {
		return nil
	}
	for i := range d.Players {
		if d.Players[i].AccountID == id {
			return &d.Players[i]
		}
	}
	return nil
}

// HeroConstant is a value of /constants/heroes, keyed by an unrelated string.
type HeroConstant struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	LocalizedName string `json:"localized_name"`
}

// ItemConstant is a value of /constants/items, keyed by the internal item name.
type ItemConstant struct {
	ID    int    `json:"id"`
	DName string `json:"dname"`
}
