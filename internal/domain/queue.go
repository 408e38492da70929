package domain

import "time"

const (
	// QueueKeyPrefix prefixes the per-recipient queue key.
	QueueKeyPrefix = "notificationPayloads."
	// QueueEntryMaxAge bounds the age of entries kept on each write.
	QueueEntryMaxAge = 600 * time.Second
	// QueueKeyTTL is the expiry set on the queue key by every write.
	QueueKeyTTL = 600 * time.Second
)

// QueueKey returns the store key holding sessionID's pending notifications.
func QueueKey(prefix, sessionID string) string {
	if prefix == "" {
		prefix = QueueKeyPrefix
	}
	return prefix + sessionID
}

// FreshEntries drops entries enqueued before now-maxAge, keeping order.
func FreshEntries(entries []QueueEntry, now time.Time, maxAge time.Duration) []QueueEntry {
	cutoff := now.Add(-maxAge).UnixMilli()
	out := make([]QueueEntry, 0, len(entries)+1)
	for _, e := range entries {
		if e.Time < cutoff {
			continue
		}
		out = append(out, e)
	}
	return out
}
