package domain

import "strconv"

// AccountID is a 32-bit Steam account id as used by OpenDota.
type AccountID uint32

func (a AccountID) String() string { return strconv.FormatUint(uint64(a), 10) }

// ParseAccountID accepts decimal digits only; zero is rejected.
func ParseAccountID(s string) (AccountID, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return AccountID(n), true
}

type MatchID uint64

func (m MatchID) String() string { return strconv.FormatUint(uint64(m), 10) }

type Side string

const (
	SideRadiant Side = "Radiant"
	SideDire    Side = "Dire"
)

// SideOf maps a player_slot to its team. Slots 0-127 are Radiant.
func SideOf(playerSlot int) Side {
	if playerSlot < 128 {
		return SideRadiant
	}
	return SideDire
}

type Relation string

const (
	RelationTeammate Relation = "teammate"
	RelationEnemy    Relation = "enemy"
	RelationUnknown  Relation = "unknown"
)

// SharedMatch is a match from the subject's recent history that the target also played.
type SharedMatch struct {
	MatchID  MatchID
	Relation Relation
}

// PlayerReport is one player's normalized performance in a single match.
type PlayerReport struct {
	MatchID     MatchID
	HeroName    string
	Kills       int
	Deaths      int
	Assists     int
	HeroDamage  int
	TowerDamage int
	LastHits    int
	HeroHealing int
	Items       []string
	PlayerSlot  int
	RadiantWin  bool
	Duration    int // seconds
}

func (r *PlayerReport) Side() Side { return SideOf(r.PlayerSlot) }

// Won reports whether this player's side won the match.
func (r *PlayerReport) Won() bool { return DidWin(r.RadiantWin, r.PlayerSlot) }

// DurationMinutes truncates toward zero like the original report text.
func (r *PlayerReport) DurationMinutes() int { return r.Duration / 60 }

// DidWin is true exactly when "player is Radiant" equals "Radiant won".
func DidWin(radiantWin bool, playerSlot int) bool {
	return (SideOf(playerSlot) == SideRadiant) == radiantWin
}
