package common

const (
	// FilenameSeparator joins the secret and label segments of a document filename.
	FilenameSeparator = "@"

	// DeletedSuffix marks a soft-deleted document; such files never appear in listings.
	DeletedSuffix = ".delete"

	// PlaceholderSuffix is appended by the sync agent to files not yet downloaded.
	PlaceholderSuffix = ".icloud"

	// UndefinedName is shown for documents whose filename cannot be decoded.
	UndefinedName = "Undefined"

	// DocumentsDir is the container subdirectory that holds user documents.
	DocumentsDir = "Documents"
)
