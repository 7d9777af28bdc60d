package models

import "time"

// WebhookKey registers an outbound webhook endpoint. Secret is stored hashed;
// the HMAC signature on dispatched events is computed from SecretHash so
// receivers verify with what they were issued.
type WebhookKey struct {
	ID            string     `bson:"id" json:"id"`
	Label         string     `bson:"label" json:"label"`
	URL           string     `bson:"url" json:"url"`
	SecretHash    string     `bson:"secretHash" json:"-"`
	AllowedEvents []string   `bson:"allowedEvents" json:"allowedEvents"`
	Active        bool       `bson:"active" json:"active"`
	SuccessCount  int64      `bson:"successCount" json:"successCount"`
	FailureCount  int64      `bson:"failureCount" json:"failureCount"`
	LastStatus    int        `bson:"lastStatus,omitempty" json:"lastStatus,omitempty"`
	LastSentAt    *time.Time `bson:"lastSentAt,omitempty" json:"lastSentAt,omitempty"`
	CreatedAt     time.Time  `bson:"createdAt" json:"createdAt"`
}

// AllowsEvent reports whether the key is subscribed to the given event type.
func (k WebhookKey) AllowsEvent(event string) bool {
	for _, e := range k.AllowedEvents {
		if e == event {
			return true
		}
	}
	return false
}
