// Package coplay finds matches two players shared and builds comparable
// per-player reports from OpenDota match data.
package coplay

import (
	"context"
	"time"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/opendota"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRecentLimit = 20
	DefaultConcurrency = 6
	maxConcurrency     = 20
)

// MatchSource is the Match Fetcher surface the engine depends on.
type MatchSource interface {
	RecentMatches(ctx context.Context, id domain.AccountID, limit int) ([]opendota.MatchSummary, error)
	Match(ctx context.Context, id domain.MatchID) (*opendota.MatchDetail, error)
}

// NameResolver resolves hero and item codes. Implementations degrade instead of failing.
type NameResolver interface {
	HeroName(ctx context.Context, heroID int) string
	ItemNames(ctx context.Context, ids []int) []string
}

type Config struct {
	RecentLimit int
	Concurrency int
}

type Engine struct {
	src    MatchSource
	names  NameResolver
	cfg    Config
	logger *zap.Logger
}

func NewEngine(src MatchSource, names NameResolver, cfg Config, logger *zap.Logger) *Engine {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Concurrency > maxConcurrency {
		cfg.Concurrency = maxConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{src: src, names: names, cfg: cfg, logger: logger}
}

// RecentLimit is the lookback window used for correlation.
func (e *Engine) RecentLimit() int { return e.cfg.RecentLimit }

// ScanResult describes one correlation run. Matches is never nil.
type ScanResult struct {
	Matches []domain.SharedMatch
	Scanned int
	Skipped int
	// ListErr is set when the recent-matches listing itself failed.
	ListErr error
}

// FindSharedMatches returns the subject's recent matches in which target also
// played, in the order the provider listed them. Failures yield an empty result.
func (e *Engine) FindSharedMatches(ctx context.Context, subject, target domain.AccountID) []domain.SharedMatch {
	return e.Scan(ctx, subject, target).Matches
}

// Scan is FindSharedMatches with bookkeeping for callers that log or report it.
// A failed detail fetch skips that match; it never aborts the scan.
func (e *Engine) Scan(ctx context.Context, subject, target domain.AccountID) ScanResult {
	start := time.Now()
	res := ScanResult{Matches: []domain.SharedMatch{}}

	summaries, err := e.src.RecentMatches(ctx, subject, e.cfg.RecentLimit)
	if err != nil {
		e.logger.Warn("recent_matches_error",
			zap.Stringer("subject", subject),
			zap.String("kind", string(opendota.KindOf(err))),
			zap.Error(err),
		)
		res.ListErr = err
		return res
	}
	if len(summaries) > e.cfg.RecentLimit {
		summaries = summaries[:e.cfg.RecentLimit]
	}

	slots := make([]*domain.SharedMatch, len(summaries))
	failed := make([]bool, len(summaries))

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i, s := range summaries {
		if s.MatchID == 0 {
			continue
		}
		res.Scanned++
		i, s := i, s
		g.Go(func() error {
			detail, err := e.src.Match(ctx, s.MatchID)
			if err != nil {
				failed[i] = true
				e.logger.Debug("match_detail_skip",
					zap.Stringer("match_id", s.MatchID),
					zap.String("kind", string(opendota.KindOf(err))),
					zap.Error(err),
				)
				return nil
			}
			if detail.Player(target) == nil {
				return nil
			}
			slots[i] = &domain.SharedMatch{MatchID: s.MatchID, Relation: Classify(detail, subject, target)}
			return nil
		})
	}
	_ = g.Wait()

	for i, m := range slots {
		if failed[i] {
			res.Skipped++
		}
		if m != nil {
			res.Matches = append(res.Matches, *m)
		}
	}

	e.logger.Info("shared_matches_done",
		zap.Stringer("subject", subject),
		zap.Stringer("target", target),
		zap.Int("scanned", res.Scanned),
		zap.Int("skipped", res.Skipped),
		zap.Int("shared", len(res.Matches)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

// Classify compares the two players' sides within a match.
func Classify(d *opendota.MatchDetail, subject, target domain.AccountID) domain.Relation {
	sp, tp := d.Player(subject), d.Player(target)
	if sp == nil || tp == nil {
		return domain.RelationUnknown
	}
	if domain.SideOf(sp.PlayerSlot) == domain.SideOf(tp.PlayerSlot) {
		return domain.RelationTeammate
	}
	return domain.RelationEnemy
}
