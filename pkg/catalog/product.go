package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownType = errors.New("unknown product type")

// ProductType is the kind of media a product delivers.
type ProductType string

const (
	TypeVideo      ProductType = "video"
	TypeMeditation ProductType = "meditation"
	TypeEbook      ProductType = "ebook"
	TypeHealth     ProductType = "health"
	TypePodcast    ProductType = "podcast"
)

// Types lists every product type in store tab order.
var Types = []ProductType{TypeVideo, TypeMeditation, TypeEbook, TypeHealth, TypePodcast}

// ParseType accepts a product type name in any case.
func ParseType(s string) (ProductType, error) {
	t := ProductType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

func (t *ProductType) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MediaKind is how a product's asset is played back.
type MediaKind string

const (
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
)

// Kind maps a product type to its playback kind. Health products ship as
// video guides.
func (t ProductType) Kind() MediaKind {
	switch t {
	case TypeVideo, TypeHealth:
		return MediaVideo
	case TypeMeditation, TypePodcast:
		return MediaAudio
	default:
		return MediaDocument
	}
}

// Review is one player's rating of a product.
type Review struct {
	ID      int64  `json:"id" yaml:"id"`
	User    string `json:"user" yaml:"user"`
	Rating  int    `json:"rating" yaml:"rating"` // 1..5
	Comment string `json:"comment" yaml:"comment"`
}

// Product is an item in the wellness store.
type Product struct {
	ID          int         `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Type        ProductType `json:"type" yaml:"type"`
	Price       float64     `json:"price" yaml:"price"`
	Description string      `json:"description" yaml:"description"`
	AssetURL    string      `json:"asset_url" yaml:"asset_url"`
	ImageURL    string      `json:"image_url" yaml:"image_url"`
	UnlockLevel int         `json:"unlock_level,omitempty" yaml:"unlock_level,omitempty"`
	Reviews     []Review    `json:"reviews,omitempty" yaml:"-"`
}

// IsFree reports whether the product costs nothing.
func (p Product) IsFree() bool {
	return p.Price == 0
}

// IsLocked reports whether the player has not yet reached the product's
// unlock level.
func (p Product) IsLocked(moduleIndex int) bool {
	return p.UnlockLevel > moduleIndex
}

// AverageRating is the mean review rating, or 0 with no reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews))
}

// Validate checks the fields a catalog entry must carry.
func (p Product) Validate() error {
	var errs []error
	if p.ID <= 0 {
		errs = append(errs, fmt.Errorf("product id must be positive, got %d", p.ID))
	}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("product name is required"))
	}
	if _, err := ParseType(string(p.Type)); err != nil {
		errs = append(errs, err)
	}
	if p.Price < 0 {
		errs = append(errs, fmt.Errorf("price must not be negative, got %v", p.Price))
	}
	if p.AssetURL == "" {
		errs = append(errs, errors.New("asset_url is required"))
	}
	if p.UnlockLevel < 0 {
		errs = append(errs, fmt.Errorf("unlock_level must not be negative, got %d", p.UnlockLevel))
	}
	return errors.Join(errs...)
}

// Find returns the product with the given id.
func Find(products []Product, id int) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Contains reports whether a product with the given id is in the list.
func Contains(products []Product, id int) bool {
	_, ok := Find(products, id)
	return ok
}
