package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Folder is a named node in a per-organization hierarchy used to group
// vault items. ParentID is the hex ID of the direct parent folder; the
// empty string means the folder sits at the root of the organization.
type Folder struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string        `bson:"name" json:"name"`
	ParentID       string        `bson:"parent" json:"parent,omitempty"`
	OwnerID        bson.ObjectID `bson:"owner" json:"owner"`
	OrganizationID bson.ObjectID `bson:"organization" json:"organization"`
	CreatedAt      time.Time     `bson:"createdAt" json:"createdAt"`
}
