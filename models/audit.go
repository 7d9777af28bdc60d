package models

import "time"

// AuditEntry records a mutation against a protected resource.
type AuditEntry struct {
	ID           string         `bson:"id" json:"id"`
	ActorID      string         `bson:"actorId" json:"actorId"`
	Action       string         `bson:"action" json:"action"`
	ResourceType string         `bson:"resourceType" json:"resourceType"`
	ResourceID   string         `bson:"resourceId" json:"resourceId"`
	Details      map[string]any `bson:"details,omitempty" json:"details,omitempty"`
	IPAddress    string         `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent    string         `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
}
