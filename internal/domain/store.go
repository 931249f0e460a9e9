package domain

import (
	"context"
	"time"
)

// ArtifactStore persists the versioned training artifacts consumed by
// scoring runs. A bundle is immutable once saved: the classifier
// parameters, the reference price table and the ordered feature list are
// written together and can never drift apart.
type ArtifactStore interface {
	// SaveBundle stores a new artifact bundle.
	SaveBundle(ctx context.Context, bundle *ArtifactBundle) error

	// GetBundle retrieves a bundle by ID.
	GetBundle(ctx context.Context, bundleID string) (*ArtifactBundle, error)

	// LatestBundle retrieves the most recently saved bundle.
	LatestBundle(ctx context.Context) (*ArtifactBundle, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// ArtifactBundle groups the three reference artifacts of one training run.
type ArtifactBundle struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	// FeatureNames is the ordered feature list defining the vector
	// layout the model was trained against.
	FeatureNames []string `json:"featureNames"`

	// Fingerprint is the schema fingerprint of FeatureNames. Scoring
	// recomputes it from its own feature order at load and refuses to
	// run on mismatch.
	Fingerprint string `json:"fingerprint"`

	// ReferencePrices maps cartridge model → mean Original price.
	ReferencePrices map[string]float64 `json:"referencePrices"`

	// Model holds the serialized classifier parameters as JSON.
	Model []byte `json:"model"`
}

// StoreConfig holds configuration for artifact store initialization.
type StoreConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
