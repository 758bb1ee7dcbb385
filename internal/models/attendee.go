package models

import "time"

// Attendee is a single registration against a session token. The pair
// (IdentityNumber, Token) is unique among all attendees.
type Attendee struct {
	ID              string    `json:"id" bson:"_id"`
	SessionID       string    `json:"session_id" bson:"session_id"`
	Token           string    `json:"token" bson:"token"`
	IdentityNumber  string    `json:"identity_number" bson:"identity_number"`
	Name            string    `json:"name" bson:"name"`
	Role            string    `json:"role" bson:"role"`
	Unit            string    `json:"unit" bson:"unit"`
	Email           string    `json:"email" bson:"email"`
	SignatureObject string    `json:"signature_object" bson:"signature_object"`
	RegisteredAt    time.Time `json:"registered_at" bson:"registered_at"`
	SourceIP        string    `json:"source_ip,omitempty" bson:"source_ip,omitempty"`
}
