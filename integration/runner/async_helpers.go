package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

const (
	// PollInterval is how often to check the journey for updates
	PollInterval = 1 * time.Second
	// StepTimeout is max time to wait for the worker to apply a step
	StepTimeout = 60 * time.Second
)

// ErrStepFailed is returned when the worker records a failure banner
// instead of applying a step.
type ErrStepFailed struct {
	Message string
}

func (e *ErrStepFailed) Error() string {
	return "step failed: " + e.Message
}

type queuedResponse struct {
	JourneyID uuid.UUID          `json:"journey_id"`
	RequestID string             `json:"request_id"`
	Journey   *journey.GameState `json:"journey,omitempty"`
}

func doJSON(ctx context.Context, client *http.Client, method, url string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned %d (expected %d): %s", method, url, resp.StatusCode, want, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CreateJourney starts a journey and returns its id. The opening step is
// generated asynchronously.
func CreateJourney(ctx context.Context, client *http.Client, baseURL, player string) (uuid.UUID, error) {
	var resp queuedResponse
	body := map[string]string{"player": player}
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/v1/journeys", body, http.StatusCreated, &resp); err != nil {
		return uuid.UUID{}, err
	}
	return resp.JourneyID, nil
}

// PostAction submits an action and returns the request_id
func PostAction(ctx context.Context, client *http.Client, baseURL string, journeyID uuid.UUID, action string) (string, error) {
	var resp queuedResponse
	url := fmt.Sprintf("%s/v1/journeys/%s/actions", baseURL, journeyID.String())
	if err := doJSON(ctx, client, http.MethodPost, url, map[string]string{"action": action}, http.StatusAccepted, &resp); err != nil {
		return "", err
	}
	return resp.RequestID, nil
}

// GetJourney retrieves the current journey
func GetJourney(ctx context.Context, client *http.Client, baseURL string, journeyID uuid.UUID) (*journey.GameState, error) {
	var gs journey.GameState
	url := fmt.Sprintf("%s/v1/journeys/%s", baseURL, journeyID.String())
	if err := doJSON(ctx, client, http.MethodGet, url, nil, http.StatusOK, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// BuyProducts adds each product to the cart and checks out.
func BuyProducts(ctx context.Context, client *http.Client, baseURL string, journeyID uuid.UUID, productIDs []int) error {
	base := fmt.Sprintf("%s/v1/journeys/%s", baseURL, journeyID.String())
	for _, id := range productIDs {
		if err := doJSON(ctx, client, http.MethodPost, base+"/cart", map[string]int{"product_id": id}, http.StatusOK, nil); err != nil {
			return fmt.Errorf("failed to add product %d to cart: %w", id, err)
		}
	}
	if err := doJSON(ctx, client, http.MethodPost, base+"/checkout", nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("failed to check out: %w", err)
	}
	return nil
}

// PollForStep polls the journey until the log grows past initialLogLen and
// nothing is pending. A failure banner ends the wait with ErrStepFailed.
func PollForStep(ctx context.Context, client *http.Client, baseURL string, journeyID uuid.UUID, initialLogLen int, timeout time.Duration) (*journey.GameState, error) {
	deadline := time.After(timeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("timeout waiting for journey update (waited %v)", timeout)
		case <-ticker.C:
			gs, err := GetJourney(ctx, client, baseURL, journeyID)
			if err != nil {
				// keep polling
				continue
			}
			if gs.Pending {
				continue
			}
			if len(gs.Log) > initialLogLen {
				return gs, nil
			}
			if gs.LastError != "" {
				return gs, &ErrStepFailed{Message: gs.LastError}
			}
		}
	}
}
