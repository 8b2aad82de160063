package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/yoga-journey/pkg/catalog"
	"github.com/jwebster45206/yoga-journey/pkg/journey"
	"github.com/jwebster45206/yoga-journey/pkg/storage"
)

const maxCommentRunes = 1000

type ReviewRequest struct {
	ProductID int    `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (h *JourneyHandler) handleReview(w http.ResponseWriter, r *http.Request, gs *journey.GameState) {
	var req ReviewRequest
	if err := decodeBody(w, r, &req); err != nil || req.ProductID <= 0 {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'product_id', 'rating' and 'comment'.")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, h.logger, http.StatusBadRequest, "Rating must be between 1 and 5.")
		return
	}

	p, err := h.storage.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		h.logger.Error("Failed to load product", "error", err, "product_id", req.ProductID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load product")
		return
	}
	if p == nil {
		writeError(w, h.logger, http.StatusNotFound, "Product not found")
		return
	}
	if !gs.Owns(p.ID) {
		writeError(w, h.logger, http.StatusForbidden, "You can only review products in your library.")
		return
	}
	if p.IsLocked(gs.CurrentModuleIndex) {
		writeError(w, h.logger, http.StatusForbidden, "This product unlocks at a later module.")
		return
	}

	review := catalog.Review{
		ID:      time.Now().UnixMilli(),
		User:    gs.Profile.Name,
		Rating:  req.Rating,
		Comment: h.filter.Clean(req.Comment, maxCommentRunes),
	}
	if err := h.storage.AddReview(r.Context(), p.ID, review); err != nil {
		h.logger.Error("Failed to save review", "error", err, "product_id", p.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save review")
		return
	}

	h.logger.Info("Review added", "journey_id", gs.ID.String(), "product_id", p.ID, "rating", review.Rating)
	writeJSON(w, h.logger, http.StatusCreated, review)
}

// ProductsHandler serves the catalog without a journey.
type ProductsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewProductsHandler(storage storage.Storage, logger *slog.Logger) *ProductsHandler {
	return &ProductsHandler{storage: storage, logger: logger}
}

// ProductReviewsResponse is a product's reviews and their mean rating.
type ProductReviewsResponse struct {
	ProductID     int              `json:"product_id"`
	AverageRating float64          `json:"average_rating"`
	Reviews       []catalog.Review `json:"reviews"`
}

// ServeHTTP handles catalog requests
// Routes:
// GET /v1/products                    - List products (?type=&q=)
// GET /v1/products/{productID}         - Read one product
// GET /v1/products/{productID}/reviews - Reviews with average rating
func (h *ProductsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, r, http.MethodGet)
		return
	}

	parts := splitPath(r.URL.Path, "/v1/products")
	if len(parts) == 0 {
		h.handleList(w, r)
		return
	}

	id, ok := parseProductID(parts[0])
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid product ID")
		return
	}
	p, err := h.storage.GetProduct(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load product", "error", err, "product_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load product")
		return
	}
	if p == nil {
		writeError(w, h.logger, http.StatusNotFound, "Product not found")
		return
	}

	switch {
	case len(parts) == 1:
		writeJSON(w, h.logger, http.StatusOK, p)
	case len(parts) == 2 && parts[1] == "reviews":
		reviews := p.Reviews
		if reviews == nil {
			reviews = []catalog.Review{}
		}
		writeJSON(w, h.logger, http.StatusOK, ProductReviewsResponse{
			ProductID:     p.ID,
			AverageRating: catalog.AverageRating(reviews),
			Reviews:       reviews,
		})
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown product resource")
	}
}

func (h *ProductsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	products, err := h.storage.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load the store")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, f.Apply(products))
}
