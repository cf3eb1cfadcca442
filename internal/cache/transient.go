// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"staticmenus/internal/fingerprint"
)

const (
	transientDisplayName = "Transient"

	// TransientLabel prefixes every transient name written by the backend.
	TransientLabel = Group + "_"

	// TransientIndexName holds the JSON list of names written so far.
	TransientIndexName = Group + "__index"
)

// TransientStore is a named key/value store with per-entry expiry. Missing and expired entries report ok=false; a
// zero ttl never expires.
type TransientStore interface {
	GetTransient(ctx context.Context, name string) (string, bool, error)
	SetTransient(ctx context.Context, name, value string, ttl time.Duration) error
	DeleteTransient(ctx context.Context, name string) error
}

// TransientPrefixDeleter is implemented by stores that can remove every
// name starting with a prefix in one call. ClearAll prefers it over the
// index walk.
type TransientPrefixDeleter interface {
	DeleteTransientPrefix(ctx context.Context, prefix string) (int64, error)
}

// ErrCorruptIndex is returned when the side index cannot be decoded.
var ErrCorruptIndex = errors.New("transient index unreadable")

// TransientBackend keeps menu markup in the transient table. When the
// store cannot delete by prefix, every name written is recorded in a side
// index that ClearAll walks.
type TransientBackend struct {
	store TransientStore

	// mu serializes index read-modify-write within this process. Writers
	// in other processes can still lose an index update; such entries are
	// left to expire through their TTL.
	mu sync.Mutex
}

// NewTransientBackend returns a transient backend. A nil store makes
// every lookup miss. Share one backend per store so index updates are
// serialized.
func NewTransientBackend(store TransientStore) *TransientBackend {
	return &TransientBackend{store: store}
}

// TransientName is the storage name for fp, cut to the table's limit.
func TransientName(fp string) string {
	return fingerprint.Key(TransientLabel, fp, fingerprint.MaxTransientNameLength)
}

// Get returns the cached markup for fp.
func (b *TransientBackend) Get(ctx context.Context, fp string) (string, bool) {
	if b.store == nil {
		return "", false
	}
	val, ok, err := b.store.GetTransient(ctx, TransientName(fp))
	if err != nil {
		slog.Warn("transient get error", "key", fp, "error", err)
		return "", false
	}
	return val, ok
}

// Set records the name for fp in the index and then stores markup. A
// failure after the index write leaves a listed name with no entry, which
// ClearAll handles; an entry never exists without being listed.
func (b *TransientBackend) Set(ctx context.Context, fp, markup string, ttl time.Duration) error {
	if b.store == nil {
		return ErrUnavailable
	}
	name := TransientName(fp)
	if _, ok := b.store.(TransientPrefixDeleter); !ok {
		if err := b.addToIndex(ctx, name); err != nil {
			return err
		}
	}
	if err := b.store.SetTransient(ctx, name, markup, ttl); err != nil {
		return fmt.Errorf("transient set: %w", err)
	}
	return nil
}

func (b *TransientBackend) addToIndex(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	names, err := b.readIndex(ctx)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(names, name)
	if i < len(names) && names[i] == name {
		return nil
	}
	names = append(names, "")
	copy(names[i+1:], names[i:])
	names[i] = name
	return b.writeIndex(ctx, names)
}

// ClearAll deletes every transient the backend wrote. Stores that support
// prefix deletion are cleared in one call, index included. Otherwise every
// indexed name is deleted and then the index itself; names that fail to
// delete stay in the index for the next attempt.
func (b *TransientBackend) ClearAll(ctx context.Context) error {
	if b.store == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if pd, ok := b.store.(TransientPrefixDeleter); ok {
		n, err := pd.DeleteTransientPrefix(ctx, TransientLabel)
		if err != nil {
			return fmt.Errorf("clear transients: %w", err)
		}
		slog.Debug("transient cache cleared", "deleted", n)
		return nil
	}

	names, err := b.readIndex(ctx)
	if errors.Is(err, ErrCorruptIndex) {
		// The listed names are lost. Reset the index so new entries are
		// tracked again and report that older ones may outlive the flush.
		if derr := b.store.DeleteTransient(ctx, TransientIndexName); derr != nil {
			return errors.Join(err, fmt.Errorf("delete transient index: %w", derr))
		}
		return err
	}
	if err != nil {
		return err
	}

	var errs []error
	var remaining []string
	for _, name := range names {
		if err := b.store.DeleteTransient(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
			remaining = append(remaining, name)
		}
	}

	if len(remaining) > 0 {
		if err := b.writeIndex(ctx, remaining); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}

	if err := b.store.DeleteTransient(ctx, TransientIndexName); err != nil {
		return fmt.Errorf("delete transient index: %w", err)
	}
	slog.Debug("transient cache cleared", "deleted", len(names))
	return nil
}

// DisplayName implements Backend.
func (b *TransientBackend) DisplayName() string {
	return transientDisplayName
}

// readIndex returns the sorted list of names in the index.
func (b *TransientBackend) readIndex(ctx context.Context) ([]string, error) {
	raw, ok, err := b.store.GetTransient(ctx, TransientIndexName)
	if err != nil {
		return nil, fmt.Errorf("read transient index: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		slog.Warn("transient index unreadable", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	sort.Strings(names)
	return names, nil
}

// writeIndex stores the index without expiry.
func (b *TransientBackend) writeIndex(ctx context.Context, names []string) error {
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("marshal transient index: %w", err)
	}
	if err := b.store.SetTransient(ctx, TransientIndexName, string(data), 0); err != nil {
		return fmt.Errorf("write transient index: %w", err)
	}
	return nil
}
