package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
	"github.com/jwebster45206/yoga-journey/pkg/storage"
)

const maxUpdateAttempts = 10

func journeyKey(id uuid.UUID) string {
	return "journey:" + id.String()
}

func turnKey(id uuid.UUID) string {
	return "journey-turn:" + id.String()
}

// Journey operations (Redis-backed)

func (r *RedisStorage) SaveJourney(ctx context.Context, gs *journey.GameState) error {
	if gs == nil {
		return errors.New("journey cannot be nil")
	}
	gs.UpdatedAt = time.Now()

	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal journey", "journey_id", gs.ID, "error", err)
		return fmt.Errorf("failed to marshal journey: %w", err)
	}

	if err := r.client.Set(ctx, journeyKey(gs.ID), data, journeyTTL).Err(); err != nil {
		r.logger.Error("Failed to save journey", "journey_id", gs.ID, "error", err)
		return fmt.Errorf("failed to save journey: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadJourney(ctx context.Context, id uuid.UUID) (*journey.GameState, error) {
	data, err := r.client.Get(ctx, journeyKey(id)).Bytes()
	if err != nil {
		if isNil(err) {
			r.logger.Debug("Journey not found", "journey_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load journey", "journey_id", id, "error", err)
		return nil, fmt.Errorf("failed to load journey: %w", err)
	}

	var gs journey.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		r.logger.Error("Failed to unmarshal journey", "journey_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal journey: %w", err)
	}
	return &gs, nil
}

// UpdateJourney runs fn inside a WATCH on the journey key. Any write to the
// key between the read and EXEC fails the transaction and fn runs again on
// the newer state.
func (r *RedisStorage) UpdateJourney(ctx context.Context, id uuid.UUID, fn func(*journey.GameState) error) (*journey.GameState, error) {
	key := journeyKey(id)

	var updated *journey.GameState
	var fnErr error
	txf := func(tx *redis.Tx) error {
		updated, fnErr = nil, nil

		data, err := tx.Get(ctx, key).Bytes()
		if isNil(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load journey: %w", err)
		}

		var gs journey.GameState
		if err := json.Unmarshal(data, &gs); err != nil {
			return fmt.Errorf("failed to unmarshal journey: %w", err)
		}
		if err := fn(&gs); err != nil {
			fnErr = err
			return nil
		}
		gs.UpdatedAt = time.Now()

		out, err := json.Marshal(&gs)
		if err != nil {
			return fmt.Errorf("failed to marshal journey: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, journeyTTL)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &gs
		return nil
	}

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Debug("Journey changed during update, retrying", "journey_id", id, "attempt", attempt)
			continue
		}
		if err != nil {
			r.logger.Error("Failed to update journey", "journey_id", id, "error", err)
			return nil, fmt.Errorf("failed to update journey: %w", err)
		}
		if fnErr != nil {
			return nil, fnErr
		}
		return updated, nil
	}

	r.logger.Error("Gave up updating journey", "journey_id", id, "attempts", maxUpdateAttempts)
	return nil, storage.ErrConflict
}

func (r *RedisStorage) DeleteJourney(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, journeyKey(id), turnKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete journey", "journey_id", id, "error", err)
		return fmt.Errorf("failed to delete journey: %w", err)
	}
	return nil
}

// ClaimTurn sets the in-flight marker. The marker expires on its own so a
// crashed worker cannot block a journey forever.
func (r *RedisStorage) ClaimTurn(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := r.client.SetNX(ctx, turnKey(id), time.Now().Unix(), turnTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim turn: %w", err)
	}
	return ok, nil
}

func (r *RedisStorage) ReleaseTurn(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, turnKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to release turn: %w", err)
	}
	return nil
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
