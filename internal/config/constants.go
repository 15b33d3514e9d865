package config

// Default paths for on-disk state
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultMediaRoot is where uploaded covers are stored with the local backend
	DefaultMediaRoot = "./media"
)
