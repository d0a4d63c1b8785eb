package coplay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/opendota"
)

const (
	subjectID domain.AccountID = 1001
	targetID  domain.AccountID = 2002
)

type fakeSource struct {
	mu       sync.Mutex
	recent   []opendota.MatchSummary
	listErr  error
	details  map[domain.MatchID]*opendota.MatchDetail
	failing  map[domain.MatchID]bool
	delay    time.Duration
	inFlight int32
	peak     int32
	calls    int32
}

func (f *fakeSource) RecentMatches(ctx context.Context, id domain.AccountID, limit int) ([]opendota.MatchSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.recent, nil
}

func (f *fakeSource) Match(ctx context.Context, id domain.MatchID) (*opendota.MatchDetail, error) {
	atomic.AddInt32(&f.calls, 1)
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	f.mu.Lock()
	if n > f.peak {
		f.peak = n
	}
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failing[id] {
		return nil, &opendota.FetchError{Kind: opendota.KindStatus, Status: 500}
	}
	d, ok := f.details[id]
	if !ok {
		return nil, &opendota.FetchError{Kind: opendota.KindStatus, Status: 404}
	}
	return d, nil
}

type fakeNames struct{}

func (fakeNames) HeroName(ctx context.Context, heroID int) string {
	switch heroID {
	case 1:
		return "Anti-Mage"
	case 74:
		return "Invoker"
	}
	return "Unknown"
}

func (fakeNames) ItemNames(ctx context.Context, ids []int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		switch id {
		case 0:
		case 1:
			out = append(out, "Blink Dagger")
		case 44:
			out = append(out, "Tango")
		}
	}
	return out
}

func match(id domain.MatchID, players ...opendota.PlayerMatchRaw) *opendota.MatchDetail {
	return &opendota.MatchDetail{MatchID: id, RadiantWin: true, Duration: 2400, Players: players}
}

func player(id domain.AccountID, slot int) opendota.PlayerMatchRaw {
	return opendota.PlayerMatchRaw{AccountID: id, PlayerSlot: slot, HeroID: 1}
}

// twentyMatches returns 20 recent matches; the target appears in 105 (same side) and 112 (other side).
func twentyMatches() *fakeSource {
	f := &fakeSource{details: map[domain.MatchID]*opendota.MatchDetail{}, failing: map[domain.MatchID]bool{}}
	for i := 0; i < 20; i++ {
		id := domain.MatchID(100 + i)
		f.recent = append(f.recent, opendota.MatchSummary{MatchID: id})
		f.details[id] = match(id, player(subjectID, 0), player(9999, 129))
	}
	f.details[105] = match(105, player(subjectID, 1), player(targetID, 3))
	f.details[112] = match(112, player(subjectID, 130), player(targetID, 2))
	return f
}

func TestFindSharedMatchesScenario(t *testing.T) {
	e := NewEngine(twentyMatches(), fakeNames{}, Config{}, nil)
	got := e.FindSharedMatches(context.Background(), subjectID, targetID)
	if len(got) != 2 {
		t.Fatalf("expected 2 shared matches, got %+v", got)
	}
	if got[0].MatchID != 105 || got[0].Relation != domain.RelationTeammate {
		t.Fatalf("unexpected first entry %+v", got[0])
	}
	if got[1].MatchID != 112 || got[1].Relation != domain.RelationEnemy {
		t.Fatalf("unexpected second entry %+v", got[1])
	}
}

func TestFindSharedMatchesPreservesOrderUnderConcurrency(t *testing.T) {
	f := &fakeSource{details: map[domain.MatchID]*opendota.MatchDetail{}, delay: 5 * time.Millisecond}
	for i := 0; i < 20; i++ {
		id := domain.MatchID(500 - i)
		f.recent = append(f.recent, opendota.MatchSummary{MatchID: id})
		f.details[id] = match(id, player(subjectID, 0), player(targetID, 128))
	}
	e := NewEngine(f, fakeNames{}, Config{Concurrency: 4}, nil)
	got := e.FindSharedMatches(context.Background(), subjectID, targetID)
	if len(got) != 20 {
		t.Fatalf("expected 20, got %d", len(got))
	}
	for i, m := range got {
		if m.MatchID != domain.MatchID(500-i) || m.Relation != domain.RelationEnemy {
			t.Fatalf("entry %d out of order: %+v", i, m)
		}
	}
	if f.peak > 4 {
		t.Fatalf("concurrency limit exceeded: peak=%d", f.peak)
	}
}

func TestFindSharedMatchesSkipsFailedDetails(t *testing.T) {
	f := twentyMatches()
	f.failing[105] = true
	f.failing[101] = true
	e := NewEngine(f, fakeNames{}, Config{}, nil)
	res := e.Scan(context.Background(), subjectID, targetID)
	if len(res.Matches) != 1 || res.Matches[0].MatchID != 112 {
		t.Fatalf("expected only 112, got %+v", res.Matches)
	}
	if res.Skipped != 2 || res.Scanned != 20 {
		t.Fatalf("unexpected bookkeeping scanned=%d skipped=%d", res.Scanned, res.Skipped)
	}
}

func TestFindSharedMatchesTotalFailure(t *testing.T) {
	f := &fakeSource{listErr: &opendota.FetchError{Kind: opendota.KindNetwork, Err: errors.New("dial")}}
	e := NewEngine(f, fakeNames{}, Config{}, nil)
	res := e.Scan(context.Background(), subjectID, targetID)
	if res.Matches == nil || len(res.Matches) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", res.Matches)
	}
	if res.ListErr == nil {
		t.Fatalf("expected ListErr to be recorded")
	}
}

func TestFindSharedMatchesEmptyHistory(t *testing.T) {
	e := NewEngine(&fakeSource{}, fakeNames{}, Config{}, nil)
	if got := e.FindSharedMatches(context.Background(), subjectID, targetID); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestFindSharedMatchesRespectsLimit(t *testing.T) {
	f := twentyMatches()
	e := NewEngine(f, fakeNames{}, Config{RecentLimit: 5}, nil)
	got := e.FindSharedMatches(context.Background(), subjectID, targetID)
	if len(got) != 0 {
		t.Fatalf("matches beyond the window must be ignored, got %+v", got)
	}
	if atomic.LoadInt32(&f.calls) != 5 {
		t.Fatalf("expected 5 detail fetches, got %d", f.calls)
	}
}

func TestFindSharedMatchesSkipsZeroIDs(t *testing.T) {
	f := twentyMatches()
	f.recent = append([]opendota.MatchSummary{{MatchID: 0}}, f.recent[:19]...)
	e := NewEngine(f, fakeNames{}, Config{}, nil)
	res := e.Scan(context.Background(), subjectID, targetID)
	if res.Scanned != 19 {
		t.Fatalf("expected 19 scanned, got %d", res.Scanned)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		d        *opendota.MatchDetail
		expected domain.Relation
	}{
		{"bothRadiant", match(1, player(subjectID, 0), player(targetID, 4)), domain.RelationTeammate},
		{"bothDire", match(1, player(subjectID, 128), player(targetID, 132)), domain.RelationTeammate},
		{"opposite", match(1, player(subjectID, 127), player(targetID, 128)), domain.RelationEnemy},
		{"targetMissing", match(1, player(subjectID, 0)), domain.RelationUnknown},
		{"subjectMissing", match(1, player(targetID, 0)), domain.RelationUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.d, subjectID, targetID); got != tc.expected {
				t.Fatalf("Classify = %s, want %s", got, tc.expected)
			}
			if got := Classify(tc.d, targetID, subjectID); got != tc.expected {
				t.Fatalf("swapped Classify = %s, want %s", got, tc.expected)
			}
		})
	}
}
