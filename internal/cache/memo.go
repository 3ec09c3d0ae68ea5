package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/olist-insights/pkg/logger"
	"github.com/angelmondragon/olist-insights/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const generationCounter = "cache_generation"

// ErrMiss is returned by a Store when the key is absent.
var ErrMiss = errors.New("cache miss")

// Store is the optional shared tier behind the in-process map.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Counter(ctx context.Context, key string) (int64, error)
	SectionKey(generation int64, section, fingerprint string) string
	CounterKey(name string) string
}

// Key identifies one memoized computation: the section, the snapshot token of
// its input tables, and its scalar parameters.
type Key struct {
	Section string
	Token   string
	Params  []string
}

// String joins the normalized parts with "|".
func (k Key) String() string {
	parts := make([]string, 0, len(k.Params)+2)
	parts = append(parts, normalizePart(k.Section), normalizePart(k.Token))
	for _, p := range k.Params {
		parts = append(parts, normalizePart(p))
	}
	return strings.Join(parts, "|")
}

func normalizePart(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

// Options configures a Memo.
type Options struct {
	MaxEntries int
	TTL        time.Duration
	Store      Store
	// IsMiss classifies Store.Get errors that mean "not present".
	IsMiss    func(error) bool
	RemoteTTL time.Duration
	Logger    *logger.Logger
	Metrics   *metrics.PipelineMetrics
}

type entry struct {
	key      string
	value    any
	storedAt time.Time
	elem     *list.Element
}

// Memo is a bounded in-process cache with an optional shared Store. Entries
// are evicted oldest-inserted first; Invalidate drops everything at once.
type Memo struct {
	mu         sync.Mutex
	entries    map[string]*entry
	order      *list.List
	generation int64

	maxEntries int
	ttl        time.Duration
	group      singleflight.Group

	store     Store
	isMiss    func(error) bool
	remoteTTL time.Duration
	logg      *logger.Logger
	metrics   *metrics.PipelineMetrics
	now       func() time.Time
}

func New(opts Options) *Memo {
	isMiss := opts.IsMiss
	if isMiss == nil {
		isMiss = func(err error) bool { return errors.Is(err, ErrMiss) }
	}
	return &Memo{
		entries:    make(map[string]*entry),
		order:      list.New(),
		maxEntries: opts.MaxEntries,
		ttl:        opts.TTL,
		store:      opts.Store,
		isMiss:     isMiss,
		remoteTTL:  opts.RemoteTTL,
		logg:       opts.Logger,
		metrics:    opts.Metrics,
		now:        time.Now,
	}
}

// Len returns the number of live local entries.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Generation returns the local invalidation counter.
func (m *Memo) Generation() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

func (m *Memo) lookup(key string) (any, int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, m.generation, false
	}
	if m.ttl > 0 && m.now().Sub(e.storedAt) > m.ttl {
		m.removeLocked(e)
		return nil, m.generation, false
	}
	return e.value, m.generation, true
}

func (m *Memo) put(key string, value any, generation int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// A computation that started before Invalidate must not repopulate the map.
	if generation != m.generation {
		return
	}
	if e, ok := m.entries[key]; ok {
		m.removeLocked(e)
	}
	e := &entry{key: key, value: value, storedAt: m.now()}
	e.elem = m.order.PushBack(e)
	m.entries[key] = e
	for m.maxEntries > 0 && len(m.entries) > m.maxEntries {
		oldest := m.order.Front()
		if oldest == nil {
			break
		}
		m.removeLocked(oldest.Value.(*entry))
	}
}

func (m *Memo) removeLocked(e *entry) {
	m.order.Remove(e.elem)
	delete(m.entries, e.key)
}

// Invalidate drops every local entry and advances the shared generation so
// remote entries written under the old generation are no longer read.
func (m *Memo) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]*entry)
	m.order.Init()
	m.generation++
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	if _, err := m.store.Incr(ctx, m.store.CounterKey(generationCounter)); err != nil {
		return fmt.Errorf("advance shared cache generation: %w", err)
	}
	return nil
}

func (m *Memo) remoteKey(ctx context.Context, key Key) (string, bool) {
	if m.store == nil {
		return "", false
	}
	gen, err := m.store.Counter(ctx, m.store.CounterKey(generationCounter))
	if err != nil {
		m.warn(ctx, "read shared cache generation", err)
		return "", false
	}
	params := append([]string{key.Token}, key.Params...)
	for i := range params {
		params[i] = normalizePart(params[i])
	}
	return m.store.SectionKey(gen, normalizePart(key.Section), strings.Join(params, "|")), true
}

func (m *Memo) warn(ctx context.Context, msg string, err error) {
	if m.logg == nil {
		return
	}
	m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), msg)
}

// Do returns the memoized value for key, computing it at most once per key
// across concurrent callers.
func Do[T any](ctx context.Context, m *Memo, key Key, compute func(context.Context) (T, error)) (T, error) {
	if m == nil {
		return compute(ctx)
	}
	local := key.String()
	cached, generation, ok := m.lookup(local)
	if ok {
		if typed, ok := cached.(T); ok {
			m.metrics.CacheHit(key.Section)
			return typed, nil
		}
	}

	flight := fmt.Sprintf("%s#%d", local, generation)
	v, err, _ := m.group.Do(flight, func() (any, error) {
		if v, _, ok := m.lookup(local); ok {
			return v, nil
		}
		remote, useRemote := m.remoteKey(ctx, key)
		if useRemote {
			raw, err := m.store.Get(ctx, remote)
			switch {
			case err == nil:
				var out T
				jerr := json.Unmarshal([]byte(raw), &out)
				if jerr == nil {
					m.metrics.CacheHit(key.Section)
					m.put(local, out, generation)
					return out, nil
				}
				m.warn(ctx, "decode shared cache entry", jerr)
			case !m.isMiss(err):
				m.warn(ctx, "read shared cache entry", err)
			}
		}

		m.metrics.CacheMiss(key.Section)
		out, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		m.put(local, out, generation)
		if useRemote {
			if payload, jerr := json.Marshal(out); jerr != nil {
				m.warn(ctx, "encode shared cache entry", jerr)
			} else if serr := m.store.Set(ctx, remote, string(payload), m.remoteTTL); serr != nil {
				m.warn(ctx, "write shared cache entry", serr)
			}
		}
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cached value for %s has unexpected type %T", key.Section, v)
	}
	return typed, nil
}
