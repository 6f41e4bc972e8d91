package config

const (
	// DefaultDatabasePath is the default path for the main application database.
	DefaultDatabasePath = "./readscout.db"

	// DefaultSearchBaseURL is the Google Books volumes endpoint.
	DefaultSearchBaseURL = "https://www.googleapis.com/books/v1"
)
