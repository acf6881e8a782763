package service

import "errors"

// Errors returned by the service layer in addition to the store sentinels.
// The API layer translates these into HTTP statuses.
var (
	// ErrForbidden means the caller is neither the owner of the item nor the
	// holder of a sufficient sharing grant.
	ErrForbidden = errors.New("caller is not permitted to access this item")

	// ErrInvalidPin means the supplied PIN did not match the stored hash.
	ErrInvalidPin = errors.New("invalid pin")

	// ErrPinLocked means the caller has exceeded the PIN attempt rate and
	// must back off before retrying.
	ErrPinLocked = errors.New("too many pin attempts")

	// ErrFolderNotEmpty means a folder still contains folders or items and
	// cannot be deleted.
	ErrFolderNotEmpty = errors.New("folder is not empty")

	// ErrTooLarge means an upload exceeds the configured size limit.
	ErrTooLarge = errors.New("file exceeds the upload size limit")

	// ErrInvalidShare means a sharing request is malformed, e.g. targets the
	// item's owner or names an unknown permission.
	ErrInvalidShare = errors.New("invalid sharing request")
)
