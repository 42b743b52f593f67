package models

import "encoding/json"

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSErrorMessage represents an error message sent over WebSocket
type WSErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewWSMessage marshals data into a message for event
func NewWSMessage(event string, data interface{}) (WSMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return WSMessage{}, err
	}
	return WSMessage{Event: event, Data: raw}, nil
}
