package models

import "time"

// TrainingSession is a training/event record reachable by the public through
// a token-bearing registration link.
type TrainingSession struct {
	ID           string    `json:"id" bson:"_id"`
	Token        string    `json:"token" bson:"token"`
	Topic        string    `json:"topic" bson:"topic"`
	Date         string    `json:"date" bson:"date"`
	ActivityType string    `json:"activity_type" bson:"activity_type"`
	Facilitator  string    `json:"facilitator" bson:"facilitator"`
	Responsible  string    `json:"responsible,omitempty" bson:"responsible,omitempty"`
	Role         string    `json:"role,omitempty" bson:"role,omitempty"`
	Content      string    `json:"content" bson:"content"`
	StartTime    string    `json:"start_time" bson:"start_time"`
	EndTime      string    `json:"end_time" bson:"end_time"`
	Link         string    `json:"link" bson:"link"`
	QRObject     string    `json:"qr_object" bson:"qr_object"`
	TokenExpiry  time.Time `json:"token_expiry" bson:"token_expiry"`
	TokenActive  bool      `json:"token_active" bson:"token_active"`
	OwnerID      string    `json:"owner_id,omitempty" bson:"owner_id,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// AssetFolder names the storage grouping for the session's objects. The
// token component keeps two sessions with the same topic from sharing (and
// deleting) each other's files.
func (s *TrainingSession) AssetFolder() string {
	return s.Topic + "_" + s.Token
}

// PublicView strips everything an unauthenticated visitor has no business
// seeing before the session is returned through the token endpoint.
type SessionPublicView struct {
	Topic        string `json:"topic"`
	Date         string `json:"date"`
	ActivityType string `json:"activity_type"`
	Facilitator  string `json:"facilitator"`
	Responsible  string `json:"responsible,omitempty"`
	Role         string `json:"role,omitempty"`
	Content      string `json:"content"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

// PublicView returns the reduced representation served on token resolution.
func (s *TrainingSession) PublicView() SessionPublicView {
	return SessionPublicView{
		Topic:        s.Topic,
		Date:         s.Date,
		ActivityType: s.ActivityType,
		Facilitator:  s.Facilitator,
		Responsible:  s.Responsible,
		Role:         s.Role,
		Content:      s.Content,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
	}
}
