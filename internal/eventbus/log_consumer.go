package eventbus

import (
	"context"
	"encoding/json"
	"log"

	"github.com/matthewbaird/formvis/internal/event"
)

// LogConsumer logs every domain event against the session it came from.
type LogConsumer struct{}

func NewLogConsumer() *LogConsumer { return &LogConsumer{} }

// payloadKeys holds the payload fields shared by change and session events.
type payloadKeys struct {
	SessionID string `json:"session_id"`
	FormID    string `json:"form_id"`
	Cause     string `json:"cause"`
	Reason    string `json:"reason"`
}

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	var keys payloadKeys
	if len(evt.Payload) > 0 {
		if err := json.Unmarshal(evt.Payload, &keys); err != nil {
			log.Printf("event: %s: undecodable payload: %v", evt.EventType, err)
			return nil
		}
	}

	detail := ""
	switch {
	case keys.Cause != "":
		detail = " cause=" + keys.Cause
	case keys.Reason != "":
		detail = " reason=" + keys.Reason
	}
	log.Printf("event: session=%s form=%s %s [%s/%s]%s",
		shortID(keys.SessionID), keys.FormID, evt.EventType, evt.Category, evt.Weight, detail)
	return nil
}

func shortID(id string) string {
	switch {
	case id == "":
		return "-"
	case len(id) > 8:
		return id[:8]
	}
	return id
}
