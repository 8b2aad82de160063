package handlers

import (
	"net/http"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

const maxProfileNameRunes = 40

// ProfileResponse is the profile page: identity, counters and theme.
type ProfileResponse struct {
	Profile journey.Profile      `json:"profile"`
	Stats   journey.ProfileStats `json:"stats"`
	Theme   journey.Theme        `json:"theme"`
}

// PatchProfileRequest changes any subset of the profile. GalleryImage is
// appended to the gallery.
type PatchProfileRequest struct {
	Name         *string `json:"name,omitempty"`
	Avatar       *string `json:"avatar,omitempty"`
	GalleryImage *string `json:"gallery_image,omitempty"`
	Theme        *string `json:"theme,omitempty"`
}

func (h *JourneyHandler) handleProfile(w http.ResponseWriter, gs *journey.GameState) {
	writeJSON(w, h.logger, http.StatusOK, ProfileResponse{
		Profile: gs.Profile,
		Stats:   gs.Stats(),
		Theme:   gs.Theme,
	})
}

func (h *JourneyHandler) handlePatchProfile(w http.ResponseWriter, r *http.Request, gs *journey.GameState) {
	var req PatchProfileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}

	themeChanged := false
	updated, ok := h.update(w, r, gs.ID, func(cur *journey.GameState) error {
		themeChanged = false
		if req.Name != nil {
			if err := cur.Rename(h.filter.Clean(*req.Name, maxProfileNameRunes)); err != nil {
				return rejectWith(http.StatusBadRequest, err.Error())
			}
		}
		if req.Avatar != nil {
			if err := cur.SetAvatar(*req.Avatar); err != nil {
				return rejectWith(http.StatusBadRequest, err.Error())
			}
		}
		if req.GalleryImage != nil {
			if err := cur.AddToGallery(*req.GalleryImage); err != nil {
				return rejectWith(http.StatusBadRequest, err.Error())
			}
		}
		if req.Theme != nil {
			theme, err := journey.ParseTheme(*req.Theme)
			if err != nil {
				return rejectWith(http.StatusBadRequest, err.Error())
			}
			themeChanged = theme != cur.Theme
			cur.Theme = theme
		}
		return nil
	})
	if !ok {
		return
	}

	if themeChanged && updated.Player != "" {
		if err := h.storage.SaveTheme(r.Context(), updated.Player, updated.Theme); err != nil {
			h.logger.Warn("Failed to remember theme", "error", err, "player", updated.Player)
		}
	}
	h.handleProfile(w, updated)
}
