package journey

import (
	"github.com/jwebster45206/yoga-journey/pkg/catalog"
)

// Playback describes how to play a library item.
type Playback struct {
	ProductID int               `json:"product_id"`
	Name      string            `json:"name"`
	AssetURL  string            `json:"asset_url"`
	Kind      catalog.MediaKind `json:"kind"`
}

// Play returns playback details for p. Free meditations can be played
// without being bought; everything else must be in the library. Locked
// products cannot be played either way.
func (gs *GameState) Play(p catalog.Product) (Playback, error) {
	freeTrack := p.Type == catalog.TypeMeditation && p.IsFree()
	if !freeTrack && !gs.Owns(p.ID) {
		return Playback{}, ErrNotOwned
	}
	if p.IsLocked(gs.CurrentModuleIndex) {
		return Playback{}, ErrProductLocked
	}
	return Playback{
		ProductID: p.ID,
		Name:      p.Name,
		AssetURL:  p.AssetURL,
		Kind:      p.Type.Kind(),
	}, nil
}

// ListedProduct is a catalog product annotated for one player.
type ListedProduct struct {
	catalog.Product
	Owned         bool    `json:"owned"`
	InCart        bool    `json:"in_cart"`
	Locked        bool    `json:"locked"`
	AverageRating float64 `json:"average_rating"`
}

// Annotate marks each product with the player's ownership and lock state.
func (gs *GameState) Annotate(products []catalog.Product) []ListedProduct {
	out := make([]ListedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, ListedProduct{
			Product:       p,
			Owned:         gs.Owns(p.ID),
			InCart:        gs.InCart(p.ID),
			Locked:        p.IsLocked(gs.CurrentModuleIndex),
			AverageRating: catalog.AverageRating(p.Reviews),
		})
	}
	return out
}
