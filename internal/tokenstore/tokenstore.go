// Package tokenstore provides encrypted storage for per-service bearer tokens.
package tokenstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/anisync/internal/crypto"
	"github.com/mrlokans/anisync/internal/entities"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// EnvEncryptionKey is the environment variable holding the base64 key.
	EnvEncryptionKey = "TOKEN_ENCRYPTION_KEY"

	// DefaultKeyFileName is the fallback key file in the user's home directory.
	DefaultKeyFileName = ".anisync-token-key"
)

// TokenStore persists access tokens encrypted with AES-256-GCM, keyed by
// canonical service name. Tokens are decrypted only on read.
type TokenStore struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
}

// Config holds configuration for the token store.
type Config struct {
	// DatabasePath is the path to the SQLite database file.
	DatabasePath string

	// EncryptionKey is the base64-encoded 32-byte key. If empty, the key is
	// resolved from the environment or the key file.
	EncryptionKey string

	// KeyFilePath overrides the default key file location.
	KeyFilePath string
}

// New creates a TokenStore, resolving the encryption key and migrating the
// token schema.
func New(cfg Config) (*TokenStore, error) {
	key, err := resolveEncryptionKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	encryptor, err := crypto.NewEncryptorFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&entities.AccessToken{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &TokenStore{db: db, encryptor: encryptor}, nil
}

// NewWithDB creates a TokenStore on an already-open database handle. Used by
// tests and by callers that share a single connection.
func NewWithDB(db *gorm.DB, encryptionKey string) (*TokenStore, error) {
	encryptor, err := crypto.NewEncryptorFromBase64(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	if err := db.AutoMigrate(&entities.AccessToken{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &TokenStore{db: db, encryptor: encryptor}, nil
}

// resolveEncryptionKey determines the key from explicit config, environment,
// or a key file (generating one on first run).
func resolveEncryptionKey(cfg Config) (string, error) {
	if cfg.EncryptionKey != "" {
		return cfg.EncryptionKey, nil
	}

	if envKey := os.Getenv(EnvEncryptionKey); envKey != "" {
		return envKey, nil
	}

	keyFilePath := cfg.KeyFilePath
	if keyFilePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		keyFilePath = filepath.Join(homeDir, DefaultKeyFileName)
	}

	if data, err := os.ReadFile(keyFilePath); err == nil {
		return string(data), nil
	}

	newKey, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}

	if err := os.WriteFile(keyFilePath, []byte(newKey), 0600); err != nil {
		return "", fmt.Errorf("failed to save encryption key to %s: %w", keyFilePath, err)
	}

	return newKey, nil
}

// Close releases the underlying database connection.
func (s *TokenStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveToken stores or replaces the token for a service.
func (s *TokenStore) SaveToken(service, token string, expiresAt time.Time) error {
	encrypted, err := s.encryptor.Encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	record := &entities.AccessToken{
		Service:   service,
		Token:     encrypted,
		ExpiresAt: expiresAt,
	}

	result := s.db.Where("service = ?", service).
		Assign(map[string]interface{}{
			"token":      encrypted,
			"expires_at": expiresAt,
			"updated_at": time.Now(),
		}).
		FirstOrCreate(record)
	if result.Error != nil {
		return fmt.Errorf("failed to save token: %w", result.Error)
	}

	return nil
}

// GetAccessToken returns the decrypted token for a service, or "" when none
// is stored.
func (s *TokenStore) GetAccessToken(service string) (string, error) {
	var record entities.AccessToken
	result := s.db.Where("service = ?", service).First(&record)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to get token: %w", result.Error)
	}

	token, err := s.encryptor.Decrypt(record.Token)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return token, nil
}

// HasToken reports whether a token exists for a service without decrypting it.
func (s *TokenStore) HasToken(service string) (bool, error) {
	var count int64
	result := s.db.Model(&entities.AccessToken{}).Where("service = ?", service).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check token: %w", result.Error)
	}
	return count > 0, nil
}

// DeleteToken removes the stored token for a service.
func (s *TokenStore) DeleteToken(service string) error {
	result := s.db.Where("service = ?", service).Delete(&entities.AccessToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete token: %w", result.Error)
	}
	return nil
}
