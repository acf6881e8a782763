package domain

import "go.mongodb.org/mongo-driver/v2/bson"

// Principal is the authenticated caller of a vault operation, as established
// by the external identity service's bearer token. Every vault operation is
// authorized against the principal regardless of any client-side PIN state.
type Principal struct {
	UserID         bson.ObjectID
	OrganizationID bson.ObjectID
	Email          string
}
