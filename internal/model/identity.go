package model

import "time"

// IdentityID is the opaque token assigned to a connection on Connect
type IdentityID string

// Outbound delivers asynchronous notifications to one connection.
// Deliver must not block; it reports whether the notification was accepted.
type Outbound interface {
	Deliver(n Notification) bool
}

// Identity is a connected client as held by the identity registry
type Identity struct {
	ID          IdentityID
	DisplayName string
	Outbound    Outbound // nil for identities with nowhere to notify
	ConnectedAt time.Time
}

// ClientIdentity is the confirmed {id, name} pair sent to a client on login
type ClientIdentity struct {
	ID   IdentityID `json:"id"`
	Name string     `json:"name"`
}

// ToClient projects the identity for the wire
func (i Identity) ToClient() ClientIdentity {
	return ClientIdentity{ID: i.ID, Name: i.DisplayName}
}
