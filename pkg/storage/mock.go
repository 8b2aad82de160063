package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/yoga-journey/pkg/catalog"
	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

const maxUpdateAttempts = 10

// MockStorage is an in-memory Storage for tests
type MockStorage struct {
	mu        sync.RWMutex
	journeys  map[uuid.UUID][]byte
	versions  map[uuid.UUID]int
	turns     map[uuid.UUID]bool
	products  []catalog.Product
	reviews   map[int][]catalog.Review
	themes    map[string]journey.Theme
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a mock storage serving the given catalog
func NewMockStorage(products ...catalog.Product) *MockStorage {
	return &MockStorage{
		journeys: make(map[uuid.UUID][]byte),
		versions: make(map[uuid.UUID]int),
		turns:    make(map[uuid.UUID]bool),
		products: products,
		reviews:  make(map[int][]catalog.Review),
		themes:   make(map[string]journey.Theme),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

// SaveJourney stores a copy so later mutations by the caller are not seen.
func (m *MockStorage) SaveJourney(ctx context.Context, gs *journey.GameState) error {
	if gs == nil {
		return errors.New("journey cannot be nil")
	}
	data, err := json.Marshal(gs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journeys[gs.ID] = data
	m.versions[gs.ID]++
	return nil
}

func (m *MockStorage) LoadJourney(ctx context.Context, id uuid.UUID) (*journey.GameState, error) {
	m.mu.RLock()
	data, ok := m.journeys[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var gs journey.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

func (m *MockStorage) DeleteJourney(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.journeys, id)
	delete(m.versions, id)
	delete(m.turns, id)
	return nil
}

// UpdateJourney mirrors the optimistic update of the Redis store: the write
// is dropped and fn rerun if the journey's version moved while fn ran.
func (m *MockStorage) UpdateJourney(ctx context.Context, id uuid.UUID, fn func(*journey.GameState) error) (*journey.GameState, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		m.mu.RLock()
		data, ok := m.journeys[id]
		version := m.versions[id]
		m.mu.RUnlock()
		if !ok {
			return nil, nil
		}

		var gs journey.GameState
		if err := json.Unmarshal(data, &gs); err != nil {
			return nil, err
		}
		if err := fn(&gs); err != nil {
			return nil, err
		}
		out, err := json.Marshal(&gs)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		if m.versions[id] != version {
			m.mu.Unlock()
			continue
		}
		m.journeys[id] = out
		m.versions[id]++
		m.mu.Unlock()
		return &gs, nil
	}
	return nil, ErrConflict
}

func (m *MockStorage) ClaimTurn(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.turns[id] {
		return false, nil
	}
	m.turns[id] = true
	return true, nil
}

func (m *MockStorage) ReleaseTurn(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, id)
	return nil
}

// TurnClaimed reports whether a turn is currently claimed for the journey.
func (m *MockStorage) TurnClaimed(id uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turns[id]
}

func (m *MockStorage) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalog.Product, len(m.products))
	for i, p := range m.products {
		p.Reviews = append([]catalog.Review(nil), m.reviews[p.ID]...)
		out[i] = p
	}
	return out, nil
}

func (m *MockStorage) GetProduct(ctx context.Context, id int) (*catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := catalog.Find(m.products, id)
	if !ok {
		return nil, nil
	}
	p.Reviews = append([]catalog.Review(nil), m.reviews[id]...)
	return &p, nil
}

func (m *MockStorage) AddReview(ctx context.Context, productID int, review catalog.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[productID] = append(m.reviews[productID], review)
	return nil
}

func (m *MockStorage) ListReviews(ctx context.Context, productID int) ([]catalog.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]catalog.Review{}, m.reviews[productID]...), nil
}

func (m *MockStorage) SaveTheme(ctx context.Context, player string, theme journey.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.themes[player] = theme
	return nil
}

func (m *MockStorage) LoadTheme(ctx context.Context, player string) (journey.Theme, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.themes[player], nil
}
