// Package linkstore maps a chat user to the Dota account they registered.
package linkstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
)

var (
	ErrNotLinked   = errors.New("no dota account linked")
	ErrInvalidUser = errors.New("empty user id")
	ErrCorruptLink = errors.New("corrupt link")
)

// Store is the get/set contract the bot uses; the engine never sees it.
type Store interface {
	Get(ctx context.Context, userID string) (domain.AccountID, error)
	Set(ctx context.Context, userID string, id domain.AccountID) error
}

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[string]domain.AccountID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{links: make(map[string]domain.AccountID)}
}

func (m *MemoryStore) Get(ctx context.Context, userID string) (domain.AccountID, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrInvalidUser
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.links[userID]
	if !ok {
		return 0, ErrNotLinked
	}
	return id, nil
}

func (m *MemoryStore) Set(ctx context.Context, userID string, id domain.AccountID) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidUser
	}
	m.mu.Lock()
	m.links[userID] = id
	m.mu.Unlock()
	return nil
}
