// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"sync"
	"time"
)

// localEntry is a value with its expiry; a zero expiry never expires.
type localEntry struct {
	value   []byte
	expires time.Time
}

// LocalObjectStore is an in-process ObjectStore. Entries live until their
// TTL passes or their group is deleted. It is safe for concurrent use.
type LocalObjectStore struct {
	mu     sync.RWMutex
	groups map[string]map[string]localEntry
	now    func() time.Time
}

// NewLocalObjectStore returns an empty in-process store.
func NewLocalObjectStore() *LocalObjectStore {
	return &LocalObjectStore{
		groups: make(map[string]map[string]localEntry),
		now:    time.Now,
	}
}

// Get returns the live value for group/key.
func (s *LocalObjectStore) Get(_ context.Context, group, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.groups[group][key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		s.mu.Lock()
		delete(s.groups[group], key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores a copy of value under group/key.
func (s *LocalObjectStore) Set(_ context.Context, group, key string, value []byte, ttl time.Duration) error {
	e := localEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[group]
	if !ok {
		g = make(map[string]localEntry)
		s.groups[group] = g
	}
	g[key] = e
	return nil
}

// DeleteGroup drops every entry of group.
func (s *LocalObjectStore) DeleteGroup(_ context.Context, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, group)
	return nil
}

// Len reports how many entries a group holds, expired ones included.
func (s *LocalObjectStore) Len(group string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups[group])
}
