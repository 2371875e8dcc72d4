package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./anisync.db"

	// DefaultTokenDatabasePath is the default path for the encrypted token store
	DefaultTokenDatabasePath = "./anisync-tokens.db"
)
