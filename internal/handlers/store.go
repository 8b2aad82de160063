package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jwebster45206/yoga-journey/pkg/catalog"
	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

// filterFromQuery reads the store tab (?type=) and search text (?q=).
func filterFromQuery(r *http.Request) (catalog.Filter, error) {
	f := catalog.Filter{
		Type:   strings.TrimSpace(r.URL.Query().Get("type")),
		Search: r.URL.Query().Get("q"),
	}
	if f.Type != "" && !strings.EqualFold(f.Type, "all") {
		if _, err := catalog.ParseType(f.Type); err != nil {
			return f, err
		}
	}
	return f, nil
}

func (h *JourneyHandler) listProducts(w http.ResponseWriter, r *http.Request) ([]catalog.Product, bool) {
	products, err := h.storage.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load the store")
		return nil, false
	}
	return products, true
}

func (h *JourneyHandler) handleStore(w http.ResponseWriter, r *http.Request, gs *journey.GameState) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	products, ok := h.listProducts(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs.Annotate(f.Apply(products)))
}

// CartResponse is the cart with its running total.
type CartResponse struct {
	Items []catalog.Product `json:"items"`
	Total float64           `json:"total"`
	Added *bool             `json:"added,omitempty"`
}

type AddToCartRequest struct {
	ProductID int `json:"product_id"`
}

func (h *JourneyHandler) cartResponse(gs *journey.GameState) CartResponse {
	return CartResponse{Items: gs.Cart, Total: gs.CartTotal()}
}

func (h *JourneyHandler) routeCart(w http.ResponseWriter, r *http.Request, gs *journey.GameState, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		writeJSON(w, h.logger, http.StatusOK, h.cartResponse(gs))
	case len(rest) == 0 && r.Method == http.MethodPost:
		h.handleAddToCart(w, r, gs)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		h.handleRemoveFromCart(w, r, gs, rest[0])
	case len(rest) == 0:
		methodNotAllowed(w, h.logger, r, http.MethodGet, http.MethodPost)
	case len(rest) == 1:
		methodNotAllowed(w, h.logger, r, http.MethodDelete)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown cart resource")
	}
}

func (h *JourneyHandler) handleAddToCart(w http.ResponseWriter, r *http.Request, gs *journey.GameState) {
	var req AddToCartRequest
	if err := decodeBody(w, r, &req); err != nil || req.ProductID <= 0 {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'product_id' field.")
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

	var added bool
	updated, ok := h.update(w, r, gs.ID, func(cur *journey.GameState) error {
		var err error
		added, err = cur.AddToCart(*p)
		if errors.Is(err, journey.ErrProductLocked) {
			return rejectWith(http.StatusForbidden, "This product unlocks at a later module.")
		}
		if err != nil {
			return rejectWith(http.StatusBadRequest, err.Error())
		}
		return nil
	})
	if !ok {
		return
	}

	resp := h.cartResponse(updated)
	resp.Added = &added
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *JourneyHandler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request, gs *journey.GameState, rawID string) {
	id, ok := parseProductID(rawID)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid product ID")
		return
	}
	updated, ok := h.update(w, r, gs.ID, func(cur *journey.GameState) error {
		if !cur.RemoveFromCart(id) {
			return rejectWith(http.StatusNotFound, "Product is not in the cart")
		}
		return nil
	})
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.cartResponse(updated))
}

// CheckoutResponse lists what was bought and the resulting library.
type CheckoutResponse struct {
	Purchased []catalog.Product `json:"purchased"`
	Total     float64           `json:"total"`
	Library   []catalog.Product `json:"library"`
}

func (h *JourneyHandler) handleCheckout(w http.ResponseWriter, r *http.Request, gs *journey.GameState) {
	var total float64
	var purchased []catalog.Product
	updated, ok := h.update(w, r, gs.ID, func(cur *journey.GameState) error {
		total = cur.CartTotal()
		var err error
		purchased, err = cur.Checkout()
		if errors.Is(err, journey.ErrCartEmpty) {
			return rejectWith(http.StatusBadRequest, "Your cart is empty.")
		}
		if err != nil {
			return rejectWith(http.StatusBadRequest, err.Error())
		}
		return nil
	})
	if !ok {
		return
	}
	h.logger.Info("Checkout complete", "journey_id", updated.ID.String(), "items", len(purchased), "total", total)
	writeJSON(w, h.logger, http.StatusOK, CheckoutResponse{Purchased: purchased, Total: total, Library: updated.Library})
}

func (h *JourneyHandler) routeLibrary(w http.ResponseWriter, r *http.Request, gs *journey.GameState, rest []string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, r, http.MethodGet)
		return
	}
	switch {
	case len(rest) == 0:
		h.handleLibrary(w, r, gs)
	case len(rest) == 2 && rest[1] == "play":
		h.handlePlay(w, r, gs, rest[0])
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown library resource")
	}
}

// handleLibrary lists owned products. Catalog entries are preferred over the
// copies taken at checkout so reviews are current.
func (h *JourneyHandler) handleLibrary(w http.ResponseWriter, r *http.Request, gs *journey.GameState) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	products, ok := h.listProducts(w, r)
	if !ok {
		return
	}

	owned := make([]catalog.Product, 0, len(gs.Library))
	for _, item := range gs.Library {
		if p, found := catalog.Find(products, item.ID); found {
			item = p
		}
		owned = append(owned, item)
	}
	writeJSON(w, h.logger, http.StatusOK, gs.Annotate(f.Apply(owned)))
}

func (h *JourneyHandler) handlePlay(w http.ResponseWriter, r *http.Request, gs *journey.GameState, rawID string) {
	id, ok := parseProductID(rawID)
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

	playback, err := gs.Play(*p)
	switch {
	case errors.Is(err, journey.ErrNotOwned):
		writeError(w, h.logger, http.StatusNotFound, "This product is not in your library.")
	case errors.Is(err, journey.ErrProductLocked):
		writeError(w, h.logger, http.StatusForbidden, "This product unlocks at a later module.")
	case err != nil:
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, h.logger, http.StatusOK, playback)
	}
}

func (h *JourneyHandler) handleMeditations(w http.ResponseWriter, r *http.Request, gs *journey.GameState) {
	products, ok := h.listProducts(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs.Annotate(catalog.FreeMeditations(products)))
}
