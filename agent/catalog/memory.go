package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

// MemoryStore is an in-process catalog for tests and local runs.
type MemoryStore struct {
	mu       sync.Mutex
	order    map[contractx.Domain][]string
	items    map[contractx.Domain]map[string]contractx.CatalogItem
	bookings map[string]contractx.BookingRecord
	byAction map[string]string
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(items ...contractx.CatalogItem) *MemoryStore {
	m := &MemoryStore{
		order:    make(map[contractx.Domain][]string),
		items:    make(map[contractx.Domain]map[string]contractx.CatalogItem),
		bookings: make(map[string]contractx.BookingRecord),
		byAction: make(map[string]string),
		now:      time.Now,
	}
	for _, it := range items {
		m.Put(it)
	}
	return m
}

// NewSampleMemoryStore returns a store loaded with the demo catalog.
func NewSampleMemoryStore() *MemoryStore {
	m := NewMemoryStore()
	for _, f := range SampleFlights() {
		m.Put(f.Item())
	}
	for _, h := range SampleHotels() {
		m.Put(h.Item())
	}
	return m
}

// Put adds or replaces an item.
func (m *MemoryStore) Put(item contractx.CatalogItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.items[item.Domain]
	if !ok {
		byID = make(map[string]contractx.CatalogItem)
		m.items[item.Domain] = byID
	}
	if _, exists := byID[item.ID]; !exists {
		m.order[item.Domain] = append(m.order[item.Domain], item.ID)
	}
	byID[item.ID] = item
}

func (m *MemoryStore) Snapshot(_ context.Context, domain contractx.Domain, limit int) ([]contractx.CatalogItem, error) {
	if !domain.Valid() {
		return nil, fmt.Errorf("%w: unknown domain %q", contractx.ErrValidation, domain)
	}
	if limit <= 0 {
		limit = 100
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.order[domain]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]contractx.CatalogItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.view(m.items[domain][id]))
	}
	return out, nil
}

// Available returns the current counter of an item.
func (m *MemoryStore) Available(domain contractx.Domain, itemID string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[domain][itemID]
	return it.AvailableCount, ok
}

func (m *MemoryStore) DecrementIfAvailable(_ context.Context, domain contractx.Domain, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[domain][itemID]
	if !ok || it.AvailableCount <= 0 {
		return false, nil
	}
	it.AvailableCount--
	m.items[domain][itemID] = it
	return true, nil
}

func (m *MemoryStore) Increment(_ context.Context, domain contractx.Domain, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[domain][itemID]
	if !ok {
		return fmt.Errorf("%w: domain=%s id=%s", ErrItemNotFound, domain, itemID)
	}
	it.AvailableCount++
	m.items[domain][itemID] = it
	return nil
}

func (m *MemoryStore) Insert(_ context.Context, rec contractx.BookingRecord) (string, error) {
	if strings.TrimSpace(rec.ActionID) == "" {
		return "", fmt.Errorf("%w: booking action id is required", contractx.ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.byAction[rec.ActionID]; dup {
		return "", fmt.Errorf("%w: duplicate action id %s", contractx.ErrValidation, rec.ActionID)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.now()
	}
	m.bookings[rec.ID] = rec
	m.byAction[rec.ActionID] = rec.ID
	return rec.ID, nil
}

func (m *MemoryStore) FindByActionID(_ context.Context, actionID string) (*contractx.BookingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byAction[actionID]
	if !ok {
		return nil, nil
	}
	rec := m.bookings[id]
	return &rec, nil
}

// BookingCount reports how many bookings were recorded.
func (m *MemoryStore) BookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

// view refreshes the counter fields inside Details so the rendered item matches
// the live count.
func (m *MemoryStore) view(it contractx.CatalogItem) contractx.CatalogItem {
	details := make(map[string]any, len(it.Details))
	for k, v := range it.Details {
		details[k] = v
	}
	switch it.Domain {
	case contractx.DomainFlight:
		details["seats_available"] = it.AvailableCount
	case contractx.DomainHotel:
		details["available_rooms"] = it.AvailableCount
	}
	it.Details = details
	return it
}
