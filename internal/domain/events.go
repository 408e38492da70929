package domain

import "encoding/json"

// Reserved relay event names.
const (
	EventNotification     = "notification"
	EventSynchronisedTime = "synchronisedClock.time"
)

// Event is the envelope sent to every admitted connection.
type Event struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
	Time    int64           `json:"time"`
}

// UpstreamMessage is the body published on the site notifications channel.
type UpstreamMessage struct {
	EventID string          `json:"eventId" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

// Notification is the user-facing message built from a classified event.
type Notification struct {
	Title             string `json:"title"`
	Body              string `json:"body"`
	URL               string `json:"url"`
	IconURL           string `json:"iconUrl"`
	DisplayDurationMs int    `json:"duration"`
	TimeToLiveSeconds int    `json:"ttl"`
}

// QueueEntry is one pending payload in a recipient's queue.
type QueueEntry struct {
	Time    int64        `json:"time"`
	Payload Notification `json:"payload"`
}

// PushEndpoint is a registered push subscription of a session.
type PushEndpoint struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}
