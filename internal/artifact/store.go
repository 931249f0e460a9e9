// Package artifact persists the versioned training artifacts. One
// bundle row holds the classifier parameters, the reference price table
// and the ordered feature list together, so the three can never drift
// apart between training and scoring.
package artifact

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mercadoguard/caracara/internal/domain"
	"github.com/mercadoguard/caracara/internal/features"
)

var (
	ErrNotFound     = errors.New("artifact bundle not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLStore implements domain.ArtifactStore using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// New creates a new artifact store based on configuration.
func New(cfg domain.StoreConfig) (domain.ArtifactStore, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	store := &SQLStore{
		db:     db,
		driver: cfg.Driver,
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *SQLStore) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := s.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveBundle stores one artifact bundle.
func (s *SQLStore) SaveBundle(ctx context.Context, bundle *domain.ArtifactBundle) error {
	if bundle == nil || bundle.ID == "" {
		return fmt.Errorf("%w: bundle ID is required", ErrInvalidInput)
	}
	if len(bundle.FeatureNames) == 0 {
		return fmt.Errorf("%w: feature list is required", ErrInvalidInput)
	}
	if bundle.Fingerprint == "" {
		return fmt.Errorf("%w: fingerprint is required", ErrInvalidInput)
	}

	names, _ := json.Marshal(bundle.FeatureNames)
	prices, _ := json.Marshal(bundle.ReferencePrices)

	query := `
		INSERT INTO artifact_bundles (
			id, created_at, feature_names, fingerprint, reference_prices, model
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, s.rebind(query),
		bundle.ID, bundle.CreatedAt,
		string(names), bundle.Fingerprint, string(prices), bundle.Model,
	)
	return err
}

// GetBundle retrieves a bundle by ID and validates its fingerprint
// against the feature layout compiled into this binary.
func (s *SQLStore) GetBundle(ctx context.Context, bundleID string) (*domain.ArtifactBundle, error) {
	if bundleID == "" {
		return nil, fmt.Errorf("%w: bundle ID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, created_at, feature_names, fingerprint, reference_prices, model
		FROM artifact_bundles
		WHERE id = ?
	`
	return s.scanBundle(s.db.QueryRowContext(ctx, s.rebind(query), bundleID))
}

// LatestBundle retrieves the most recently saved bundle.
func (s *SQLStore) LatestBundle(ctx context.Context) (*domain.ArtifactBundle, error) {
	query := `
		SELECT id, created_at, feature_names, fingerprint, reference_prices, model
		FROM artifact_bundles
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.scanBundle(s.db.QueryRowContext(ctx, s.rebind(query)))
}

func (s *SQLStore) scanBundle(row *sql.Row) (*domain.ArtifactBundle, error) {
	var b domain.ArtifactBundle
	var names, prices string

	err := row.Scan(&b.ID, &b.CreatedAt, &names, &b.Fingerprint, &prices, &b.Model)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(names), &b.FeatureNames); err != nil {
		return nil, fmt.Errorf("failed to parse feature list for %s: %w", b.ID, err)
	}
	if err := json.Unmarshal([]byte(prices), &b.ReferencePrices); err != nil {
		return nil, fmt.Errorf("failed to parse reference prices for %s: %w", b.ID, err)
	}

	// An artifact trained against a different feature layout must never
	// score a batch; fail at load, not at predict.
	if err := features.ValidateFingerprint(b.FeatureNames, b.Fingerprint); err != nil {
		return nil, fmt.Errorf("bundle %s: %w", b.ID, err)
	}

	return &b, nil
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// NewBundle assembles a bundle from training outputs with the schema
// fingerprint computed over the ordered feature list.
func NewBundle(id string, featureNames []string, referencePrices map[string]float64, model []byte) *domain.ArtifactBundle {
	return &domain.ArtifactBundle{
		ID:              id,
		CreatedAt:       time.Now().UTC(),
		FeatureNames:    append([]string{}, featureNames...),
		Fingerprint:     features.Fingerprint(featureNames),
		ReferencePrices: referencePrices,
		Model:           model,
	}
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
