package journey

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTheme = errors.New("theme must be light or dark")
	ErrEmptyName    = errors.New("profile name must not be empty")
	ErrEmptyImage   = errors.New("image must not be empty")
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
}

// Profile is the player's public identity. Avatar and gallery entries are
// image URLs or data URIs.
type Profile struct {
	Name    string   `json:"name"`
	Avatar  string   `json:"avatar"`
	Gallery []string `json:"gallery"`
}

func DefaultProfile() Profile {
	return Profile{
		Name:   "Wellness Warrior",
		Avatar: "https://images.pexels.com/photos/415829/pexels-photo-415829.jpeg?auto=compress&cs=tinysrgb&w=600",
		Gallery: []string{
			"https://images.pexels.com/photos/1882092/pexels-photo-1882092.jpeg?auto=compress&cs=tinysrgb&w=600",
			"https://images.pexels.com/photos/936615/pexels-photo-936615.jpeg?auto=compress&cs=tinysrgb&w=600",
			"https://images.pexels.com/photos/3775566/pexels-photo-3775566.jpeg?auto=compress&cs=tinysrgb&w=600",
		},
	}
}

func (gs *GameState) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	gs.Profile.Name = name
	return nil
}

func (gs *GameState) SetAvatar(image string) error {
	image = strings.TrimSpace(image)
	if image == "" {
		return ErrEmptyImage
	}
	gs.Profile.Avatar = image
	return nil
}

func (gs *GameState) AddToGallery(image string) error {
	image = strings.TrimSpace(image)
	if image == "" {
		return ErrEmptyImage
	}
	gs.Profile.Gallery = append(gs.Profile.Gallery, image)
	return nil
}

// ProfileStats are the counters shown on the profile page.
type ProfileStats struct {
	Modules      int `json:"modules"`
	Badges       int `json:"badges"`
	LibraryItems int `json:"library_items"`
}

func (gs *GameState) Stats() ProfileStats {
	return ProfileStats{
		Modules:      gs.CurrentModuleIndex,
		Badges:       len(gs.Badges),
		LibraryItems: len(gs.Library),
	}
}
