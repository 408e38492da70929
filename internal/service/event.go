package service

import (
	"encoding/json"
	"time"

	"github.com/strogmv/siterelay/internal/domain"
)

func newEvent(id string, payload json.RawMessage, at time.Time) domain.Event {
	return domain.Event{
		ID:      id,
		Payload: payload,
		Time:    at.UnixMilli(),
	}
}
