package config

const (
	// MaxTitleLength is the maximum length for document titles.
	MaxTitleLength = 255

	// MaxTagNameLength is the maximum length for a single tag name.
	MaxTagNameLength = 64

	// MaxTagsPerUpload caps the comma-separated tag list of one upload.
	MaxTagsPerUpload = 32

	// MaxFileNameLength is the maximum length for stored original file names.
	MaxFileNameLength = 255
)
