package models

import "time"

// PlatformSettings is a single "global" document of operator-tunable values.
type PlatformSettings struct {
	Key                       string    `bson:"key" json:"key"` // always "global"
	PlatformName              string    `bson:"platformName,omitempty" json:"platformName,omitempty"`
	ManualPaymentInstructions string    `bson:"manualPaymentInstructions,omitempty" json:"manualPaymentInstructions,omitempty"`
	CallLinkActiveMinutes     int       `bson:"callLinkActiveMinutes,omitempty" json:"callLinkActiveMinutes,omitempty"` // minutes before scheduledAt the link activates
	UpdatedAt                 time.Time `bson:"updatedAt" json:"updatedAt"`
}
