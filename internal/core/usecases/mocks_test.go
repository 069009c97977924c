package usecases_test

import (
	"context"
	"sync"

	"github.com/abgtour/planttour/internal/core/domain"
)

// --- Mock CatalogSource ---

type mockSource struct {
	fetchFn func(ctx context.Context) (string, error)
	calls   int
}

func (m *mockSource) Fetch(ctx context.Context) (string, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx)
	}
	return "", nil
}

func (m *mockSource) Name() string { return "mock://catalog.csv" }

func staticSource(csv string) *mockSource {
	return &mockSource{fetchFn: func(ctx context.Context) (string, error) { return csv, nil }}
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Recording SceneRenderer ---

type recordingRenderer struct {
	mu      sync.Mutex
	batches []domain.InstructionBatch
	applyFn func(batch domain.InstructionBatch) error
}

func (r *recordingRenderer) Apply(ctx context.Context, batch domain.InstructionBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
	if r.applyFn != nil {
		return r.applyFn(batch)
	}
	return nil
}

// --- Mock PlantRepository ---

type mockPlantRepo struct {
	findNearbyFn func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.RankedPlant, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.PlantRecord, error)
}

func (m *mockPlantRepo) UpsertBatch(ctx context.Context, plants []domain.PlantRecord) error {
	return nil
}

func (m *mockPlantRepo) GetByID(ctx context.Context, id string) (*domain.PlantRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPlantRepo) FindNearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.RankedPlant, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radius, limit)
	}
	return nil, nil
}

func (m *mockPlantRepo) Count(ctx context.Context) (int, error) { return 0, nil }

// scenarioCSV is the two-plant campus sample; P2's longitude uses a
// typographic minus and does not parse.
const scenarioCSV = "header\n" +
	"P1,Oak,,,Quercus,alba,,-76.9440,38.9820,5\n" +
	"P2,Fern,,,Polypodiopsida,,,−76.9441,38.9826,0.5\n"

var campus = domain.GeoPoint{Lat: 38.9820, Lon: -76.9440}

type mockSubscriber struct {
	handler func(ctx context.Context, records int) error
	err     error
}

func (m *mockSubscriber) SubscribeCatalogUpdates(ctx context.Context, handler func(ctx context.Context, records int) error) error {
	if m.err != nil {
		return m.err
	}
	m.handler = handler
	return nil
}
