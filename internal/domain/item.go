package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Permission is the level of access a sharing grant confers.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Valid reports whether p is one of the known permission levels.
func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionWrite
}

// Allows reports whether p satisfies the required permission level.
// Write subsumes read.
func (p Permission) Allows(required Permission) bool {
	if p == PermissionWrite {
		return true
	}
	return p == PermissionRead && required == PermissionRead
}

// Audit actions recorded on a vault item's access log.
const (
	ActionUpload   = "upload"
	ActionDownload = "download"
	ActionDelete   = "delete"
	ActionShare    = "share"
)

// SharedEntry is a sharing grant: a (user, permission) pair recorded on a
// vault item. An item holds at most one entry per user; re-sharing with the
// same user overwrites that user's permission.
type SharedEntry struct {
	User       bson.ObjectID `bson:"user" json:"user"`
	Permission Permission    `bson:"permission" json:"permission"`
	SharedAt   time.Time     `bson:"sharedAt" json:"sharedAt"`
}

// AccessEntry is one record in an item's append-only access log. Entries are
// never edited or removed once written.
type AccessEntry struct {
	ID        string        `bson:"id" json:"id"`
	User      bson.ObjectID `bson:"user" json:"user"`
	Action    string        `bson:"action" json:"action"`
	Timestamp time.Time     `bson:"timestamp" json:"timestamp"`
	IP        string        `bson:"ip,omitempty" json:"ip,omitempty"`
}

// ItemMetadata holds the user-editable descriptive fields of a vault item.
type ItemMetadata struct {
	Title       string   `bson:"title,omitempty" json:"title,omitempty"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	Tags        []string `bson:"tags,omitempty" json:"tags,omitempty"`
}

// VaultItem is a single encrypted file record. Ciphertext is either the
// base64-encoded encrypted payload itself or an opaque reference into an
// external blob store; EncryptionIV is the base64-encoded IV stored as a
// sibling field. No plaintext content is ever persisted: a record is only
// ever written fully formed, with ciphertext and IV together.
type VaultItem struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID        bson.ObjectID `bson:"owner" json:"owner"`
	OrganizationID bson.ObjectID `bson:"organization" json:"organization"`
	FolderID       string        `bson:"folder" json:"folder,omitempty"`
	FileName       string        `bson:"fileName" json:"fileName"`
	FileSize       int64         `bson:"fileSize" json:"fileSize"`
	MimeType       string        `bson:"mimeType" json:"mimeType"`
	Ciphertext     string        `bson:"ciphertext" json:"-"`
	EncryptionIV   string        `bson:"encryptionIV" json:"-"`
	Metadata       ItemMetadata  `bson:"metadata" json:"metadata"`
	SharedWith     []SharedEntry `bson:"sharedWith" json:"sharedWith"`
	AccessLog      []AccessEntry `bson:"accessLog" json:"-"`
	IsDeleted      bool          `bson:"isDeleted" json:"isDeleted"`
	CreatedAt      time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// GrantFor returns the sharing grant recorded for the given user, if any.
func (i *VaultItem) GrantFor(user bson.ObjectID) (SharedEntry, bool) {
	for _, g := range i.SharedWith {
		if g.User == user {
			return g, true
		}
	}
	return SharedEntry{}, false
}
