package domain

// DispatchState is a step of a single persist-then-send attempt.
type DispatchState string

const (
	DispatchQueued        DispatchState = "queued"
	DispatchPersisting    DispatchState = "persisting"
	DispatchPersisted     DispatchState = "persisted"
	DispatchPersistFailed DispatchState = "persist_failed"
	DispatchSending       DispatchState = "sending"
	DispatchSent          DispatchState = "sent"
	DispatchSendFailed    DispatchState = "send_failed"
)

// Terminal reports whether no further transition follows s.
func (s DispatchState) Terminal() bool {
	switch s {
	case DispatchPersistFailed, DispatchSent, DispatchSendFailed:
		return true
	}
	return false
}
