package service

import (
	"encoding/json"
	"fmt"

	"github.com/strogmv/siterelay/internal/domain"
)

const notificationDisplayDurationMs = 8000

type mediaItemPayload struct {
	Name    json.RawMessage `json:"name"`
	URL     json.RawMessage `json:"url"`
	IconURL json.RawMessage `json:"iconUrl"`
}

// text renders a payload field. Strings are unquoted, null or missing fields
// are empty and any other JSON value is used verbatim.
func text(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ClassificationRule maps an upstream event id to a notification template.
// BodyFormat receives the media item name as its only argument.
type ClassificationRule struct {
	EventID    string
	Title      string
	BodyFormat string
	TTLSeconds int
}

// DefaultRules is the ordered rule table applied to upstream events.
var DefaultRules = []ClassificationRule{
	{
		EventID:    "mediaItem.live",
		Title:      "We are live!",
		BodyFormat: `We are now live with "%s".`,
		TTLSeconds: 300,
	},
	{
		EventID:    "mediaItem.vodAvailable",
		Title:      "New content available!",
		BodyFormat: `"%s" is now available to watch on demand.`,
		TTLSeconds: 86400,
	},
}

// Classifier resolves events against an ordered rule table.
type Classifier struct {
	rules []ClassificationRule
}

func NewClassifier(rules []ClassificationRule) *Classifier {
	return &Classifier{rules: rules}
}

// Matches reports whether any rule handles eventID.
func (c *Classifier) Matches(eventID string) bool {
	_, ok := c.rule(eventID)
	return ok
}

// Classify builds the notification for eventID, if a rule matches.
// A payload that is not a JSON object yields empty template fields.
func (c *Classifier) Classify(eventID string, payload []byte) (domain.Notification, bool) {
	rule, ok := c.rule(eventID)
	if !ok {
		return domain.Notification{}, false
	}
	var item mediaItemPayload
	_ = json.Unmarshal(payload, &item)
	return domain.Notification{
		Title:             rule.Title,
		Body:              fmt.Sprintf(rule.BodyFormat, text(item.Name)),
		URL:               text(item.URL),
		IconURL:           text(item.IconURL),
		DisplayDurationMs: notificationDisplayDurationMs,
		TimeToLiveSeconds: rule.TTLSeconds,
	}, true
}

func (c *Classifier) rule(eventID string) (ClassificationRule, bool) {
	for _, rule := range c.rules {
		if rule.EventID == eventID {
			return rule, true
		}
	}
	return ClassificationRule{}, false
}
