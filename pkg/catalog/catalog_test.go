package catalog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProducts() []Product {
	return []Product{
		{ID: 101, Name: "Breath Awareness", Type: TypeMeditation, Price: 0, Description: "Anchor yourself with your breath.", AssetURL: "a.mp3"},
		{ID: 1, Name: "Vinyasa Flow Masterclass", Type: TypeVideo, Price: 25, Description: "Breath and movement.", AssetURL: "v.mp4", UnlockLevel: 25},
		{ID: 2, Name: "Deep Relaxation Yoga Nidra", Type: TypeMeditation, Price: 15, Description: "Stress relief.", AssetURL: "n.mp3", UnlockLevel: 30},
		{ID: 3, Name: "The Yoga Sutras", Type: TypeEbook, Price: 20, Description: "Patanjali for today.", AssetURL: "s.pdf", UnlockLevel: 50},
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    ProductType
		wantErr bool
	}{
		{"video", TypeVideo, false},
		{" Meditation ", TypeMeditation, false},
		{"PODCAST", TypePodcast, false},
		{"course", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownType))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter(t *testing.T) {
	products := sampleProducts()
	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"empty filter matches all", Filter{}, []int{101, 1, 2, 3}},
		{"all tab", Filter{Type: "all"}, []int{101, 1, 2, 3}},
		{"type only", Filter{Type: "meditation"}, []int{101, 2}},
		{"search name case insensitive", Filter{Search: "VINYASA"}, []int{1}},
		{"search description", Filter{Search: "breath"}, []int{101, 1}},
		{"type and search", Filter{Type: "meditation", Search: "stress"}, []int{2}},
		{"no match", Filter{Type: "podcast"}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(products)
			ids := make([]int, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestIsLocked(t *testing.T) {
	p := Product{UnlockLevel: 25}
	assert.True(t, p.IsLocked(0))
	assert.True(t, p.IsLocked(24))
	assert.False(t, p.IsLocked(25))
	assert.False(t, Product{}.IsLocked(0))
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 4.0, AverageRating([]Review{{Rating: 5}, {Rating: 3}}))
	assert.InDelta(t, 3.667, AverageRating([]Review{{Rating: 5}, {Rating: 5}, {Rating: 1}}), 0.001)
}

func TestFreeMeditations(t *testing.T) {
	got := FreeMeditations(sampleProducts())
	require.Len(t, got, 1)
	assert.Equal(t, 101, got[0].ID)
}

func TestKind(t *testing.T) {
	assert.Equal(t, MediaVideo, TypeVideo.Kind())
	assert.Equal(t, MediaVideo, TypeHealth.Kind())
	assert.Equal(t, MediaAudio, TypeMeditation.Kind())
	assert.Equal(t, MediaAudio, TypePodcast.Kind())
	assert.Equal(t, MediaDocument, TypeEbook.Kind())
}

func TestParse(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		doc := []byte(`
products:
  - id: 7
    name: The Wellness Mindset
    type: podcast
    price: 10
    description: Small habits.
    asset_url: https://example.com/p.mp3
    unlock_level: 5
`)
		products, err := Parse(doc)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, TypePodcast, products[0].Type)
		assert.Equal(t, 5, products[0].UnlockLevel)
	})

	t.Run("unknown type", func(t *testing.T) {
		doc := []byte(`
products:
  - id: 7
    name: Bad
    type: course
    asset_url: x
`)
		_, err := Parse(doc)
		assert.Error(t, err)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		doc := []byte(`
products:
  - {id: 1, name: A, type: video, asset_url: a}
  - {id: 1, name: B, type: video, asset_url: b}
`)
		_, err := Parse(doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate product id 1")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Parse([]byte("products: []"))
		assert.Error(t, err)
	})
}

func TestLoad_ShippedCatalog(t *testing.T) {
	products, err := Load(filepath.Join("..", "..", "data", "products.yaml"))
	require.NoError(t, err)
	assert.Len(t, products, 11)

	free := FreeMeditations(products)
	assert.Len(t, free, 3)

	p, ok := Find(products, 1)
	require.True(t, ok)
	assert.Equal(t, "Vinyasa Flow Masterclass", p.Name)
	assert.Equal(t, 25, p.UnlockLevel)
}
