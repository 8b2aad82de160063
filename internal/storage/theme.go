package storage

import (
	"context"
	"fmt"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

// Theme operations (Redis-backed)

func themeKey(player string) string {
	return "theme:" + player
}

func (r *RedisStorage) SaveTheme(ctx context.Context, player string, theme journey.Theme) error {
	if err := r.client.Set(ctx, themeKey(player), string(theme), 0).Err(); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadTheme(ctx context.Context, player string) (journey.Theme, error) {
	val, err := r.client.Get(ctx, themeKey(player)).Result()
	if err != nil {
		if isNil(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load theme: %w", err)
	}
	theme, err := journey.ParseTheme(val)
	if err != nil {
		r.logger.Warn("Ignoring stored theme", "player", player, "value", val)
		return "", nil
	}
	return theme, nil
}
