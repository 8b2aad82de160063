package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/yoga-journey/pkg/catalog"
	"github.com/jwebster45206/yoga-journey/pkg/journey"
	"github.com/jwebster45206/yoga-journey/pkg/queue"
	"github.com/jwebster45206/yoga-journey/pkg/storage"
)

var testProducts = []catalog.Product{
	{ID: 1, Name: "Sunrise Flow", Type: catalog.TypeVideo, Price: 19.99, Description: "A gentle morning vinyasa.", AssetURL: "https://example.com/sunrise.mp4"},
	{ID: 2, Name: "Breath of Calm", Type: catalog.TypeMeditation, Price: 0, Description: "Ten minutes of box breathing.", AssetURL: "https://example.com/calm.mp3"},
	{ID: 3, Name: "Deep Rest", Type: catalog.TypeMeditation, Price: 0, Description: "Yoga nidra for sleep.", AssetURL: "https://example.com/rest.mp3", UnlockLevel: 5},
	{ID: 4, Name: "Mindful Eating", Type: catalog.TypeEbook, Price: 9.99, Description: "Recipes for a calm gut.", AssetURL: "https://example.com/eating.pdf"},
	{ID: 5, Name: "Advanced Inversions", Type: catalog.TypeVideo, Price: 29.99, Description: "Headstands and forearm balances.", AssetURL: "https://example.com/inversions.mp4", UnlockLevel: 10},
}

type recordingQueue struct {
	mu   sync.Mutex
	reqs []*queue.Request
	err  error
}

func (q *recordingQueue) Enqueue(ctx context.Context, req *queue.Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.reqs = append(q.reqs, req)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	queued []string
}

func (p *recordingPublisher) PublishRequestQueued(ctx context.Context, journeyID uuid.UUID, requestID string, requestType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queued = append(p.queued, requestType)
	return nil
}

type journeyFixture struct {
	store     *storage.MockStorage
	queue     *recordingQueue
	publisher *recordingPublisher
	handler   *JourneyHandler
	gs        *journey.GameState
}

func newJourneyFixture(t *testing.T) *journeyFixture {
	t.Helper()
	f := &journeyFixture{
		store:     storage.NewMockStorage(testProducts...),
		queue:     &recordingQueue{},
		publisher: &recordingPublisher{},
	}
	f.handler = NewJourneyHandler(f.store, f.queue, f.publisher, testLogger())
	f.gs = journey.NewGameState("asha", journey.ThemeLight)
	require.NoError(t, f.store.SaveJourney(context.Background(), f.gs))
	return f
}

func (f *journeyFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func (f *journeyFixture) path(suffix string) string {
	return "/v1/journeys/" + f.gs.ID.String() + suffix
}

func (f *journeyFixture) reload(t *testing.T) *journey.GameState {
	t.Helper()
	gs, err := f.store.LoadJourney(context.Background(), f.gs.ID)
	require.NoError(t, err)
	require.NotNil(t, gs)
	return gs
}

// update mutates the stored journey.
func (f *journeyFixture) update(t *testing.T, fn func(gs *journey.GameState)) {
	t.Helper()
	gs := f.reload(t)
	fn(gs)
	require.NoError(t, f.store.SaveJourney(context.Background(), gs))
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func TestJourneyHandler_Create(t *testing.T) {
	f := newJourneyFixture(t)

	rr := f.do(http.MethodPost, "/v1/journeys", `{"player":"  river  "}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	resp := decode[QueuedResponse](t, rr)
	require.NotNil(t, resp.Journey)
	assert.NotEqual(t, uuid.Nil, resp.JourneyID)
	assert.Equal(t, "river", resp.Journey.Player)
	assert.True(t, resp.Journey.Pending)
	assert.Equal(t, journey.ThemeLight, resp.Journey.Theme)
	assert.Equal(t, journey.DefaultProfile(), resp.Journey.Profile)

	require.Len(t, f.queue.reqs, 1)
	assert.Equal(t, queue.RequestTypeOpening, f.queue.reqs[0].Type)
	assert.Equal(t, resp.RequestID, f.queue.reqs[0].RequestID)
	assert.Equal(t, []string{"opening"}, f.publisher.queued)
	assert.True(t, f.store.TurnClaimed(resp.JourneyID))
}

func TestJourneyHandler_CreateUsesSavedTheme(t *testing.T) {
	f := newJourneyFixture(t)
	require.NoError(t, f.store.SaveTheme(context.Background(), "river", journey.ThemeDark))

	rr := f.do(http.MethodPost, "/v1/journeys", `{"player":"river"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, journey.ThemeDark, decode[QueuedResponse](t, rr).Journey.Theme)
}

func TestJourneyHandler_CreateEmptyBody(t *testing.T) {
	f := newJourneyFixture(t)
	rr := f.do(http.MethodPost, "/v1/journeys", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Empty(t, decode[QueuedResponse](t, rr).Journey.Player)
}

func TestJourneyHandler_CreateQueueDown(t *testing.T) {
	f := newJourneyFixture(t)
	f.queue.err = errors.New("redis down")

	rr := f.do(http.MethodPost, "/v1/journeys", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Empty(t, f.publisher.queued)
}

// claimedStorage reports every turn as already taken.
type claimedStorage struct {
	*storage.MockStorage
}

func (claimedStorage) ClaimTurn(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func TestJourneyHandler_CreateTurnAlreadyClaimed(t *testing.T) {
	f := newJourneyFixture(t)
	f.handler = NewJourneyHandler(claimedStorage{f.store}, f.queue, f.publisher, testLogger())

	rr := f.do(http.MethodPost, "/v1/journeys", `{}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Empty(t, f.queue.reqs, "no opening is queued without the turn")
	assert.Empty(t, f.publisher.queued)
}

func TestJourneyHandler_GetAndDelete(t *testing.T) {
	f := newJourneyFixture(t)

	rr := f.do(http.MethodGet, f.path(""), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, f.gs.ID, decode[journey.GameState](t, rr).ID)

	rr = f.do(http.MethodDelete, f.path(""), "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(http.MethodGet, f.path(""), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestJourneyHandler_BadRequests(t *testing.T) {
	f := newJourneyFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"invalid id", http.MethodGet, "/v1/journeys/not-a-uuid", http.StatusBadRequest},
		{"unknown journey", http.MethodGet, "/v1/journeys/" + uuid.NewString(), http.StatusNotFound},
		{"list not allowed", http.MethodGet, "/v1/journeys", http.StatusMethodNotAllowed},
		{"patch journey", http.MethodPatch, f.path(""), http.StatusMethodNotAllowed},
		{"unknown resource", http.MethodGet, f.path("/potions"), http.StatusNotFound},
		{"get actions", http.MethodGet, f.path("/actions"), http.StatusMethodNotAllowed},
		{"post modules", http.MethodPost, f.path("/modules"), http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(tt.method, tt.path, "")
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rr).Error)
		})
	}
}

func TestJourneyHandler_Action(t *testing.T) {
	f := newJourneyFixture(t)

	rr := f.do(http.MethodPost, f.path("/actions"), `{"action":"  Roll out my mat  "}`)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	resp := decode[QueuedResponse](t, rr)
	require.Len(t, f.queue.reqs, 1)
	assert.Equal(t, resp.RequestID, f.queue.reqs[0].RequestID)
	assert.Equal(t, queue.RequestTypeAction, f.queue.reqs[0].Type)
	assert.Equal(t, "Roll out my mat", f.queue.reqs[0].Action)
	assert.True(t, f.reload(t).Pending)

	// A second action while the first is in flight is rejected.
	rr = f.do(http.MethodPost, f.path("/actions"), `{"action":"Stretch"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Len(t, f.queue.reqs, 1)
}

func TestJourneyHandler_ActionRejected(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		setup  func(gs *journey.GameState)
		status int
	}{
		{"empty action", `{"action":"   "}`, nil, http.StatusBadRequest},
		{"bad json", `{"action":`, nil, http.StatusBadRequest},
		{"game over", `{"action":"Continue"}`, func(gs *journey.GameState) { gs.IsGameOver = true }, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newJourneyFixture(t)
			if tt.setup != nil {
				f.update(t, tt.setup)
			}
			rr := f.do(http.MethodPost, f.path("/actions"), tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Empty(t, f.queue.reqs)
			assert.False(t, f.store.TurnClaimed(f.gs.ID))
		})
	}
}

func TestJourneyHandler_ActionQueueDownReleasesTurn(t *testing.T) {
	f := newJourneyFixture(t)
	f.queue.err = errors.New("redis down")

	rr := f.do(http.MethodPost, f.path("/actions"), `{"action":"Breathe"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.False(t, f.store.TurnClaimed(f.gs.ID))
	assert.False(t, f.reload(t).Pending)
}

func TestJourneyHandler_Modules(t *testing.T) {
	f := newJourneyFixture(t)
	f.update(t, func(gs *journey.GameState) { gs.CurrentModuleIndex = 2 })

	rr := f.do(http.MethodGet, f.path("/modules"), "")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[ModulesResponse](t, rr)
	assert.Equal(t, 2, resp.CurrentModuleIndex)
	assert.Equal(t, 2, resp.Progress)
	require.Len(t, resp.Modules, journey.ModuleCount)
	assert.Equal(t, journey.ModuleCompleted, resp.Modules[1].Status)
	assert.Equal(t, journey.ModuleCurrent, resp.Modules[2].Status)
	assert.Equal(t, journey.ModuleLocked, resp.Modules[3].Status)
}

func TestJourneyHandler_Dashboard(t *testing.T) {
	f := newJourneyFixture(t)
	f.update(t, func(gs *journey.GameState) {
		gs.CurrentModuleIndex = 50
		gs.Badges = []string{"Breath Keeper"}
	})

	rr := f.do(http.MethodGet, f.path("/dashboard"), "")
	require.Equal(t, http.StatusOK, rr.Code)

	d := decode[journey.Dashboard](t, rr)
	assert.Equal(t, 50, d.CompletedModules)
	assert.Equal(t, journey.ModuleCount, d.TotalModules)
	assert.Equal(t, 50, d.Percent)
	assert.Equal(t, []string{"Breath Keeper"}, d.Badges)
}
