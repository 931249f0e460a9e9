package artifact

// Schema definitions for the artifact store.
// Compatible with both SQLite and PostgreSQL.

const schemaArtifactBundles = `
CREATE TABLE IF NOT EXISTS artifact_bundles (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL,
    feature_names TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    reference_prices TEXT NOT NULL,
    model TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifact_bundles_created ON artifact_bundles(created_at);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaArtifactBundles,
	}
}
