package model

import "time"

// NotificationType identifies an asynchronous broker notification
type NotificationType string

const (
	NotificationMatchJoined NotificationType = "match_joined"
)

// Notification is pushed by the broker to a connection's Outbound
type Notification struct {
	Type      NotificationType
	Timestamp time.Time
	MatchID   MatchID
	Payload   any // Type-specific data
}

// MatchJoinedPayload is sent to a match creator when someone joins
type MatchJoinedPayload struct {
	Opponent ClientIdentity
}
