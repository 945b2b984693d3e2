package assignment

import "context"

// Repository defines customer assignment data storage.
type Repository interface {
	ListAssignments(ctx context.Context) ([]*Assignment, error)
	// ReplacePartnerAssignments drops every row of partnerID and inserts one
	// row per customer ID, atomically.
	ReplacePartnerAssignments(ctx context.Context, partnerID string, customerIDs []string) error
}
