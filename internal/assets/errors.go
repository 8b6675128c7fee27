package assets

import "errors"

var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("page template not found")

	// ErrInvalidAssetName rejects names that are not a bare file stem, such
	// as "../x" or "print.css".
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath is returned when --assets does not name a readable
	// directory.
	ErrInvalidBasePath = errors.New("unusable asset directory")

	ErrAssetRead = errors.New("reading asset")

	// ErrPathTraversal is returned when an override, usually a symlink,
	// resolves outside the asset directory.
	ErrPathTraversal = errors.New("asset resolves outside asset directory")
)
