package journey

import (
	"errors"
	"slices"

	"github.com/jwebster45206/yoga-journey/pkg/catalog"
)

var (
	ErrProductLocked = errors.New("product is locked at the current module")
	ErrCartEmpty     = errors.New("cart is empty")
	ErrNotOwned      = errors.New("product is not in the library")
)

// Owns reports whether the product is in the player's library.
func (gs *GameState) Owns(productID int) bool {
	return catalog.Contains(gs.Library, productID)
}

// InCart reports whether the product is waiting in the cart.
func (gs *GameState) InCart(productID int) bool {
	return catalog.Contains(gs.Cart, productID)
}

// AddToCart puts p in the cart. It is a no-op, returning false, when p is
// already in the cart or the library.
func (gs *GameState) AddToCart(p catalog.Product) (bool, error) {
	if gs.InCart(p.ID) || gs.Owns(p.ID) {
		return false, nil
	}
	if p.IsLocked(gs.CurrentModuleIndex) {
		return false, ErrProductLocked
	}
	p.Reviews = nil
	gs.Cart = append(gs.Cart, p)
	return true, nil
}

// RemoveFromCart drops the product from the cart and reports whether it was
// there.
func (gs *GameState) RemoveFromCart(productID int) bool {
	before := len(gs.Cart)
	gs.Cart = slices.DeleteFunc(gs.Cart, func(p catalog.Product) bool {
		return p.ID == productID
	})
	return len(gs.Cart) != before
}

// Checkout moves everything in the cart into the library and returns what
// was bought.
func (gs *GameState) Checkout() ([]catalog.Product, error) {
	if len(gs.Cart) == 0 {
		return nil, ErrCartEmpty
	}
	bought := gs.Cart
	for _, p := range bought {
		if !gs.Owns(p.ID) {
			gs.Library = append(gs.Library, p)
		}
	}
	gs.Cart = make([]catalog.Product, 0)
	return bought, nil
}

// CartTotal is the summed price of the cart.
func (gs *GameState) CartTotal() float64 {
	var total float64
	for _, p := range gs.Cart {
		total += p.Price
	}
	return total
}
