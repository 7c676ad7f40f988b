package domain

import "time"

// AuditFields holds standard audit information for domain entities.
// CreatedBy is the authenticated subject, empty for internal callers.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy,omitempty"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy,omitempty"`
}
