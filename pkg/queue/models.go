package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RequestType identifies the type of request in the queue
type RequestType string

const (
	// RequestTypeOpening asks the narrator for the first story step of a journey
	RequestTypeOpening RequestType = "opening"

	// RequestTypeAction is a player action to resolve into the next story step
	RequestTypeAction RequestType = "action"

	// RequestTypeImage paints the scene for a resolved story step
	RequestTypeImage RequestType = "image"
)

// Request represents a unified request in the queue
type Request struct {
	RequestID string      `json:"request_id"`
	Type      RequestType `json:"type"`
	JourneyID uuid.UUID   `json:"journey_id"`

	// Action-specific fields
	Action string `json:"action,omitempty"`

	// Image-specific fields
	Story string `json:"story,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewRequest builds a request with a fresh id.
func NewRequest(t RequestType, journeyID uuid.UUID) *Request {
	return &Request{
		RequestID:  uuid.New().String(),
		Type:       t,
		JourneyID:  journeyID,
		EnqueuedAt: time.Now(),
	}
}

// MarshalJSON serializes the request to JSON for Redis storage
func (r *Request) MarshalJSON() ([]byte, error) {
	type Alias Request
	return json.Marshal(&struct {
		JourneyID string `json:"journey_id"`
		*Alias
	}{
		JourneyID: r.JourneyID.String(),
		Alias:     (*Alias)(r),
	})
}

// UnmarshalJSON deserializes the request from JSON in Redis
func (r *Request) UnmarshalJSON(data []byte) error {
	type Alias Request
	aux := &struct {
		JourneyID string `json:"journey_id"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	journeyID, err := uuid.Parse(aux.JourneyID)
	if err != nil {
		return err
	}

	r.JourneyID = journeyID
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
