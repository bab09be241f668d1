package testutil

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"hayoungplace/pkg/events"
)

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []*events.Event
	Err    error
}

func (p *Publisher) Publish(_ context.Context, _ string, event *events.Event, _ events.Headers) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	return p.Err
}

func (p *Publisher) Close() error { return nil }

// Names returns the names of the published events in order.
func (p *Publisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}

// Last returns the most recent event with the given name, or nil.
func (p *Publisher) Last(name string) *events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Event == name {
			return p.events[i]
		}
	}
	return nil
}

// PageCache is an in-memory place.PageCache storing JSON like the Redis one.
// Writes for a retired generation are dropped.
type PageCache struct {
	mu            sync.Mutex
	entries       map[string][]byte
	generation    int64
	Hits          int
	Invalidations int
}

func NewPageCache() *PageCache {
	return &PageCache{entries: make(map[string][]byte)}
}

func (c *PageCache) GetPage(_ context.Context, key string, dst any) (bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.entries[key]
	if !ok {
		return false, c.generation, nil
	}
	c.Hits++
	return true, c.generation, json.Unmarshal(raw, dst)
}

func (c *PageCache) SetPage(_ context.Context, generation int64, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.entries[key] = raw
	return nil
}

func (c *PageCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]byte)
	c.generation++
	c.Invalidations++
	return nil
}

func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ImageStorage keeps uploaded objects in memory.
type ImageStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	Err     error
}

func NewImageStorage() *ImageStorage {
	return &ImageStorage{objects: make(map[string][]byte)}
}

func (s *ImageStorage) Upload(key string, data []byte) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *ImageStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *ImageStorage) URL(key string) string {
	return "https://images.test/" + key
}

func (s *ImageStorage) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clock is a settable time source for services.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
