package journey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTheme(t *testing.T) {
	tests := []struct {
		in      string
		want    Theme
		wantErr bool
	}{
		{"light", ThemeLight, false},
		{"DARK", ThemeDark, false},
		{" dark ", ThemeDark, false},
		{"sepia", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTheme(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTheme))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewGameState_Defaults(t *testing.T) {
	gs := NewGameState("sam", "")
	assert.Equal(t, ThemeLight, gs.Theme)
	assert.Equal(t, "Wellness Warrior", gs.Profile.Name)
	assert.Len(t, gs.Profile.Gallery, 3)
	assert.Equal(t, "sam", gs.Player)

	dark := NewGameState("sam", ThemeDark)
	assert.Equal(t, ThemeDark, dark.Theme)
}

func TestProfileEdits(t *testing.T) {
	gs := NewGameState("", "")

	assert.True(t, errors.Is(gs.Rename("   "), ErrEmptyName))
	require.NoError(t, gs.Rename("  Lotus Seeker "))
	assert.Equal(t, "Lotus Seeker", gs.Profile.Name)

	assert.True(t, errors.Is(gs.SetAvatar(""), ErrEmptyImage))
	require.NoError(t, gs.SetAvatar("data:image/png;base64,AAAA"))
	assert.Equal(t, "data:image/png;base64,AAAA", gs.Profile.Avatar)

	require.NoError(t, gs.AddToGallery("https://example.com/pose.jpg"))
	assert.Len(t, gs.Profile.Gallery, 4)
}

func TestStatsAndDashboard(t *testing.T) {
	gs := NewGameState("", "")
	gs.CurrentModuleIndex = 25
	gs.Badges = []string{"First Breath", "Mountain Master"}
	gs.Library = append(gs.Library, podcast)

	assert.Equal(t, ProfileStats{Modules: 25, Badges: 2, LibraryItems: 1}, gs.Stats())

	d := gs.Dashboard()
	assert.Equal(t, 25, d.CompletedModules)
	assert.Equal(t, 100, d.TotalModules)
	assert.Equal(t, 25, d.Percent)
	assert.Equal(t, Modules[25], d.CurrentModule)
}
