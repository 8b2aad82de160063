package runner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/yoga-journey/pkg/catalog"
	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func TestCheckExpectations(t *testing.T) {
	gs := journey.NewGameState("Ana", journey.ThemeLight)
	gs.Story = "You settle onto the mat as Maya smiles."
	gs.Inventory = []string{"mat", "water bottle"}
	gs.Badges = []string{"First Breath"}
	gs.CurrentModuleIndex = 2
	gs.Library = []catalog.Product{{ID: 4, Name: "Sun Salutations"}}

	tests := []struct {
		name    string
		exp     Expectations
		wantErr string
	}{
		{"empty", Expectations{}, ""},
		{"module reached", Expectations{ModuleIndexAtLeast: intPtr(2)}, ""},
		{"module short", Expectations{ModuleIndexAtLeast: intPtr(3)}, "module index >= 3"},
		{"full inventory any order", Expectations{Inventory: []string{"water bottle", "mat"}}, ""},
		{"full inventory mismatch", Expectations{Inventory: []string{"mat"}}, "expected inventory"},
		{"inventory subset", Expectations{InventoryContains: []string{"mat"}}, ""},
		{"inventory missing", Expectations{InventoryContains: []string{"block"}}, "'block'"},
		{"badge", Expectations{BadgesContain: []string{"First Breath"}}, ""},
		{"library", Expectations{LibraryContains: []int{4}}, ""},
		{"library missing", Expectations{LibraryContains: []int{9}}, "product 9"},
		{"not over", Expectations{IsGameOver: boolPtr(false)}, ""},
		{"story contains", Expectations{StoryContains: []string{"MAYA"}}, ""},
		{"story not contains", Expectations{StoryNotContains: []string{"mat"}}, "NOT contain"},
		{"story regex", Expectations{StoryRegex: `^You settle`}, ""},
		{"bad regex", Expectations{StoryRegex: `(`}, "invalid regex"},
		{"story too short", Expectations{StoryMinLength: intPtr(500)}, "length >= 500"},
		{"story too long", Expectations{StoryMaxLength: intPtr(5)}, "length <= 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkExpectations(tt.exp, gs)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	gs.LastError = "Your fate is uncertain. Try your action again."
	assert.Error(t, checkExpectations(Expectations{NoError: true}, gs))
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("opening.yaml", "name: Opening\nsteps:\n  - name: look\n    expect:\n      no_error: true\n")
	write("store.yaml", "name: Store\nsteps:\n  - name: buy\n    buy: [1]\n    expect:\n      library_contains: [1]\n")
	write("all.yaml", "name: All\ncases:\n  - opening.yaml\n  - store.yaml\n")

	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(dir, "all.yaml"), dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Opening", jobs[0].Name)
	assert.True(t, jobs[0].Suite.Steps[0].Expectations.NoError)
	assert.Equal(t, []int{1}, jobs[1].Suite.Steps[0].Buy)

	write("broken.yaml", "name: Broken\ncases:\n  - missing.yaml\n")
	_, err = LoadTestSuiteWithExpansion(filepath.Join(dir, "broken.yaml"), dir)
	assert.Error(t, err)
}

// fakeAPI applies steps synchronously so a suite can run without a worker.
type fakeAPI struct {
	mu       sync.Mutex
	gs       *journey.GameState
	products map[int]catalog.Product
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v1/journeys")
	switch {
	case path == "" && r.Method == http.MethodPost:
		f.gs = journey.NewGameState("Ana", journey.ThemeLight)
		_ = journey.ApplyStep(f.gs, &journey.StoryStep{Story: "The studio is quiet."}, "")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(queuedResponse{JourneyID: f.gs.ID, RequestID: "opening"})
	case strings.HasSuffix(path, "/actions"):
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		step := &journey.StoryStep{Story: "You " + body["action"] + ".", IsModuleComplete: true}
		step.InventoryChange.AddItem = "mat"
		_ = journey.ApplyStep(f.gs, step, body["action"])
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(queuedResponse{JourneyID: f.gs.ID, RequestID: "req-1"})
	case strings.HasSuffix(path, "/cart"):
		var body map[string]int
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = f.gs.AddToCart(f.products[body["product_id"]])
		_ = json.NewEncoder(w).Encode(map[string]any{"total": f.gs.CartTotal()})
	case strings.HasSuffix(path, "/checkout"):
		_, _ = f.gs.Checkout()
		_ = json.NewEncoder(w).Encode(map[string]any{})
	default:
		_ = json.NewEncoder(w).Encode(f.gs)
	}
}

func TestRunner_RunSuite(t *testing.T) {
	api := &fakeAPI{products: map[int]catalog.Product{
		1: {ID: 1, Name: "Morning Flow", Type: catalog.TypeVideo, Price: 9.99},
	}}
	server := httptest.NewServer(api)
	defer server.Close()

	r := NewRunner(server.URL)
	r.Timeout = 10 * time.Second

	suite := TestSuite{
		Name: "Smoke",
		Steps: []TestStep{
			{Name: "act", Action: "unroll the mat", Expectations: Expectations{
				InventoryContains:  []string{"mat"},
				ModuleIndexAtLeast: intPtr(1),
				StoryContains:      []string{"unroll"},
			}},
			{Name: "buy", Buy: []int{1}, Expectations: Expectations{LibraryContains: []int{1}}},
			{Name: "wrong", Expectations: Expectations{BadgesContain: []string{"Zen Master"}}},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2 (wrong)")
	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].Success)
	assert.Equal(t, "req-1", result.Results[0].RequestID)
	assert.True(t, result.Results[1].Success)
	assert.False(t, result.Results[2].Success)
	assert.Equal(t, api.gs.ID, result.JourneyID)
}
