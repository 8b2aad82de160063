package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/yoga-journey/internal/services/events"
	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// queuedResponse mirrors the API's reply to journey creation and actions.
type queuedResponse struct {
	JourneyID uuid.UUID          `json:"journey_id"`
	RequestID string             `json:"request_id"`
	Journey   *journey.GameState `json:"journey,omitempty"`
}

type cartResponse struct {
	Items []struct {
		ID    int     `json:"id"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	} `json:"items"`
	Total float64 `json:"total"`
	Added *bool   `json:"added,omitempty"`
}

type checkoutResponse struct {
	Total     float64 `json:"total"`
	Purchased []struct {
		Name string `json:"name"`
	} `json:"purchased"`
}

// apiClient talks to the journey API.
type apiClient struct {
	client  *http.Client
	baseURL string
}

func newAPIClient(client *http.Client, baseURL string) *apiClient {
	return &apiClient{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *apiClient) testConnection() bool {
	resp, err := c.client.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// do sends a JSON request and decodes the response into out when the
// status matches want. Any other status is turned into an error carrying
// the API's message.
func (c *apiClient) do(method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func journeyPath(id uuid.UUID, rest string) string {
	return fmt.Sprintf("/v1/journeys/%s%s", id.String(), rest)
}

func (c *apiClient) createJourney(player string) (*journey.GameState, error) {
	var resp queuedResponse
	body := map[string]string{"player": player}
	if err := c.do(http.MethodPost, "/v1/journeys", body, http.StatusCreated, &resp); err != nil {
		return nil, fmt.Errorf("failed to create journey: %w", err)
	}
	if resp.Journey == nil {
		return c.getJourney(resp.JourneyID)
	}
	return resp.Journey, nil
}

func (c *apiClient) getJourney(id uuid.UUID) (*journey.GameState, error) {
	var gs journey.GameState
	if err := c.do(http.MethodGet, journeyPath(id, ""), nil, http.StatusOK, &gs); err != nil {
		return nil, fmt.Errorf("failed to get journey: %w", err)
	}
	return &gs, nil
}

// sendAction submits an action and returns the queued request id.
func (c *apiClient) sendAction(id uuid.UUID, action string) (string, error) {
	var resp queuedResponse
	body := map[string]string{"action": action}
	if err := c.do(http.MethodPost, journeyPath(id, "/actions"), body, http.StatusAccepted, &resp); err != nil {
		return "", err
	}
	return resp.RequestID, nil
}

func (c *apiClient) getStore(id uuid.UUID, productType string) ([]journey.ListedProduct, error) {
	path := journeyPath(id, "/store")
	if productType != "" {
		path += "?type=" + productType
	}
	var products []journey.ListedProduct
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *apiClient) getLibrary(id uuid.UUID) ([]journey.ListedProduct, error) {
	var products []journey.ListedProduct
	if err := c.do(http.MethodGet, journeyPath(id, "/library"), nil, http.StatusOK, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *apiClient) addToCart(id uuid.UUID, productID int) (*cartResponse, error) {
	var resp cartResponse
	body := map[string]int{"product_id": productID}
	if err := c.do(http.MethodPost, journeyPath(id, "/cart"), body, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) getCart(id uuid.UUID) (*cartResponse, error) {
	var resp cartResponse
	if err := c.do(http.MethodGet, journeyPath(id, "/cart"), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) checkout(id uuid.UUID) (*checkoutResponse, error) {
	var resp checkoutResponse
	if err := c.do(http.MethodPost, journeyPath(id, "/checkout"), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) play(id uuid.UUID, productID int) (*journey.Playback, error) {
	var pb journey.Playback
	path := journeyPath(id, fmt.Sprintf("/library/%d/play", productID))
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &pb); err != nil {
		return nil, err
	}
	return &pb, nil
}

func (c *apiClient) getDashboard(id uuid.UUID) (*journey.Dashboard, error) {
	var d journey.Dashboard
	if err := c.do(http.MethodGet, journeyPath(id, "/dashboard"), nil, http.StatusOK, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// listenToSSE connects to the journey's event stream and forwards each
// event until the stream ends or ctx is cancelled.
func (c *apiClient) listenToSSE(ctx context.Context, id uuid.UUID, eventChan chan<- events.Event) error {
	url := fmt.Sprintf("%s/v1/events/journeys/%s", c.baseURL, id.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The shared client has a timeout that would cut the stream.
	streamClient := &http.Client{Transport: c.client.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	return readSSE(ctx, resp.Body, eventChan)
}

// readSSE parses an event stream. Comment lines (keepalives) are skipped
// and events whose data is not a JSON event keep only their type.
func readSSE(ctx context.Context, r io.Reader, eventChan chan<- events.Event) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var name string
	var data strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if name == "" && data.Len() == 0 {
				continue
			}
			var evt events.Event
			if data.Len() > 0 {
				_ = json.Unmarshal([]byte(data.String()), &evt)
			}
			if name != "" {
				evt.Type = events.EventType(name)
			}
			select {
			case eventChan <- evt:
			case <-ctx.Done():
				return ctx.Err()
			}
			name = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}
