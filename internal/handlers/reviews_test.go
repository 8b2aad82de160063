package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/yoga-journey/pkg/catalog"
	"github.com/jwebster45206/yoga-journey/pkg/journey"
	"github.com/jwebster45206/yoga-journey/pkg/storage"
)

func TestJourneyHandler_Review(t *testing.T) {
	f := newJourneyFixture(t)
	f.update(t, func(gs *journey.GameState) {
		gs.Library = []catalog.Product{testProducts[0]}
		gs.Profile.Name = "Lotus Lee"
	})

	rr := f.do(http.MethodPost, f.path("/reviews"), `{"product_id":1,"rating":5,"comment":"  Damn   good flow  "}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	review := decode[catalog.Review](t, rr)
	assert.Equal(t, "Lotus Lee", review.User)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "Dang good flow", review.Comment)
	assert.NotZero(t, review.ID)

	stored, err := f.store.ListReviews(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Review{review}, stored)
}

func TestJourneyHandler_ReviewRejected(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		setup  func(gs *journey.GameState)
		status int
	}{
		{"rating too low", `{"product_id":1,"rating":0}`, nil, http.StatusBadRequest},
		{"rating too high", `{"product_id":1,"rating":6}`, nil, http.StatusBadRequest},
		{"missing product", `{"rating":3}`, nil, http.StatusBadRequest},
		{"unknown product", `{"product_id":99,"rating":3}`, nil, http.StatusNotFound},
		{"not owned", `{"product_id":4,"rating":3}`, nil, http.StatusForbidden},
		{"owned but locked", `{"product_id":5,"rating":3}`, func(gs *journey.GameState) {
			gs.Library = []catalog.Product{testProducts[4]}
		}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newJourneyFixture(t)
			f.update(t, func(gs *journey.GameState) {
				gs.Library = []catalog.Product{testProducts[0]}
				if tt.setup != nil {
					tt.setup(gs)
				}
			})
			rr := f.do(http.MethodPost, f.path("/reviews"), tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestProductsHandler(t *testing.T) {
	store := storage.NewMockStorage(testProducts...)
	require.NoError(t, store.AddReview(t.Context(), 2, catalog.Review{ID: 1, User: "kai", Rating: 5, Comment: "Lovely"}))
	require.NoError(t, store.AddReview(t.Context(), 2, catalog.Review{ID: 2, User: "mo", Rating: 2}))
	handler := NewProductsHandler(store, testLogger())

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	t.Run("list with filter", func(t *testing.T) {
		rr := get("/v1/products?type=video")
		require.Equal(t, http.StatusOK, rr.Code)
		products := decode[[]catalog.Product](t, rr)
		require.Len(t, products, 2)
		assert.Equal(t, "Sunrise Flow", products[0].Name)
	})

	t.Run("single product", func(t *testing.T) {
		rr := get("/v1/products/4")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Mindful Eating", decode[catalog.Product](t, rr).Name)
	})

	t.Run("reviews with average", func(t *testing.T) {
		rr := get("/v1/products/2/reviews")
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[ProductReviewsResponse](t, rr)
		assert.Equal(t, 2, resp.ProductID)
		assert.Len(t, resp.Reviews, 2)
		assert.InDelta(t, 3.5, resp.AverageRating, 0.001)
	})

	t.Run("no reviews", func(t *testing.T) {
		rr := get("/v1/products/1/reviews")
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[ProductReviewsResponse](t, rr)
		assert.NotNil(t, resp.Reviews)
		assert.Zero(t, resp.AverageRating)
	})

	t.Run("errors", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/v1/products/77").Code)
		assert.Equal(t, http.StatusBadRequest, get("/v1/products/abc").Code)
		assert.Equal(t, http.StatusBadRequest, get("/v1/products?type=crystals").Code)
		assert.Equal(t, http.StatusNotFound, get("/v1/products/1/ratings").Code)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/products", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}
