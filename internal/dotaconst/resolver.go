// Package dotaconst turns OpenDota hero and item codes into display names.
package dotaconst

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/opendota"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// UnknownName is returned for heroes that cannot be resolved.
const UnknownName = "Unknown"

const defaultLoadTimeout = 20 * time.Second

// TableSource provides the raw constants tables.
type TableSource interface {
	Heroes(ctx context.Context) (map[string]opendota.HeroConstant, error)
	Items(ctx context.Context) (map[string]opendota.ItemConstant, error)
}

// Resolver memoizes both tables for the process lifetime once they load.
// A failed load is not remembered; the next lookup fetches again.
type Resolver struct {
	src         TableSource
	logger      *zap.Logger
	group       singleflight.Group
	loadTimeout time.Duration

	mu     sync.RWMutex
	heroes map[int]string
	items  map[int]string
}

func NewResolver(src TableSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{src: src, logger: logger, loadTimeout: defaultLoadTimeout}
}

// HeroName resolves a hero id, or UnknownName on any failure.
func (r *Resolver) HeroName(ctx context.Context, heroID int) string {
	table, ok := r.heroTable(ctx)
	if !ok {
		return UnknownName
	}
	if name, found := table[heroID]; found {
		return name
	}
	return UnknownName
}

// ItemNames resolves codes in order, keeping duplicates. Zero codes and codes
// missing from the table are dropped; if the table is unavailable the result is empty.
func (r *Resolver) ItemNames(ctx context.Context, ids []int) []string {
	names := make([]string, 0, len(ids))
	table, ok := r.itemTable(ctx)
	if !ok {
		return names
	}
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if name, found := table[id]; found {
			names = append(names, name)
		}
	}
	return names
}

func (r *Resolver) heroTable(ctx context.Context) (map[int]string, bool) {
	return r.table(ctx, "heroes", &r.heroes, func(lctx context.Context) (map[int]string, error) {
		raw, err := r.src.Heroes(lctx)
		if err != nil {
			return nil, err
		}
		return invert(raw, func(h opendota.HeroConstant) (int, string) { return h.ID, h.LocalizedName }), nil
	})
}

func (r *Resolver) itemTable(ctx context.Context) (map[int]string, bool) {
	return r.table(ctx, "items", &r.items, func(lctx context.Context) (map[int]string, error) {
		raw, err := r.src.Items(lctx)
		if err != nil {
			return nil, err
		}
		return invert(raw, func(it opendota.ItemConstant) (int, string) { return it.ID, it.DName }), nil
	})
}

// table returns the memoized table in slot, loading it once for all concurrent
// callers. The load runs detached from any single caller's cancellation; a
// caller whose ctx ends first degrades alone while the load keeps going.
func (r *Resolver) table(ctx context.Context, name string, slot *map[int]string, fetch func(context.Context) (map[int]string, error)) (map[int]string, bool) {
	r.mu.RLock()
	t := *slot
	r.mu.RUnlock()
	if t != nil {
		return t, true
	}

	ch := r.group.DoChan(name, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()
		inv, err := fetch(lctx)
		if err != nil {
			r.logger.Warn("constants_load_error", zap.String("table", name), zap.String("kind", string(opendota.KindOf(err))), zap.Error(err))
			return nil, err
		}
		r.mu.Lock()
		*slot = inv
		r.mu.Unlock()
		r.logger.Info("constants_loaded", zap.String("table", name), zap.Int("count", len(inv)))
		return inv, nil
	})

	select {
	case <-ctx.Done():
		r.logger.Debug("constants_wait_cancelled", zap.String("table", name), zap.Error(ctx.Err()))
		return nil, false
	case res := <-ch:
		if res.Err != nil {
			return nil, false
		}
		return res.Val.(map[int]string), true
	}
}

// invert re-keys a provider table by numeric id. Keys are visited in sorted
// order so that on duplicate ids the lexically first key wins on every run.
// Zero ids are dropped and empty names become UnknownName.
func invert[V any](raw map[string]V, entry func(V) (int, string)) map[int]string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	inv := make(map[int]string, len(raw))
	for _, k := range keys {
		id, name := entry(raw[k])
		if id == 0 {
			continue
		}
		if _, dup := inv[id]; dup {
			continue
		}
		if name == "" {
			name = UnknownName
		}
		inv[id] = name
	}
	return inv
}
