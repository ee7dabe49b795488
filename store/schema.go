package store

// schemaVersionV1 is the first schema.
const schemaVersionV1 = 1

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = schemaVersionV1

// Structured stage outputs are stored as JSON documents. Essences get their
// own table so they can be listed without decoding articles.
var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS articles (
	id              TEXT PRIMARY KEY,
	title           TEXT,
	persona         TEXT,
	phase           TEXT NOT NULL,
	seo_keywords    TEXT,
	research_json   TEXT,
	draft_json      TEXT,
	review_score    INTEGER NOT NULL DEFAULT 0,
	breakdown_json  TEXT,
	review_feedback TEXT,
	retry_count     INTEGER NOT NULL DEFAULT 0,
	is_uploaded     INTEGER NOT NULL DEFAULT 0,
	published_url   TEXT,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_phase ON articles(phase);

CREATE TABLE IF NOT EXISTS essences (
	article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	category   TEXT NOT NULL,
	content    TEXT NOT NULL,
	tags_json  TEXT,
	created_at TEXT,
	PRIMARY KEY (article_id, seq)
);
`
