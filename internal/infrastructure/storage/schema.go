package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for the pipeline's three tables. The UNIQUE constraint
// on (platform, post_id) is the dedup mechanism: inserts race on it instead
// of a separate existence check.
const Schema = `
CREATE TABLE IF NOT EXISTS monitoring_configurations (
    id          UUID PRIMARY KEY,
    entity_name TEXT NOT NULL,
    aliases     JSONB NOT NULL DEFAULT '[]',
    handles     JSONB NOT NULL DEFAULT '{}',
    ontology    JSONB NOT NULL DEFAULT '{}',
    platforms   JSONB NOT NULL DEFAULT '[]',
    active      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS mentions (
    id            UUID PRIMARY KEY,
    config_id     UUID NOT NULL,
    platform      TEXT NOT NULL,
    post_id       TEXT NOT NULL,
    title         TEXT NOT NULL DEFAULT '',
    content       TEXT NOT NULL DEFAULT '',
    url           TEXT NOT NULL DEFAULT '',
    author_handle TEXT NOT NULL DEFAULT '',
    author_name   TEXT NOT NULL DEFAULT '',
    likes         BIGINT NOT NULL DEFAULT 0,
    shares        BIGINT NOT NULL DEFAULT 0,
    comments      BIGINT NOT NULL DEFAULT 0,
    media_urls    JSONB NOT NULL DEFAULT '[]',
    raw_payload   JSONB,
    published_at  TIMESTAMPTZ NOT NULL,
    fetched_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    sentiment     TEXT,
    risk_score    NUMERIC(3,1),
    topics        JSONB,
    keywords      JSONB,
    summary       TEXT,
    scored_at     TIMESTAMPTZ,
    fact_check    JSONB,
    CONSTRAINT mentions_natural_key UNIQUE (platform, post_id)
);

CREATE INDEX IF NOT EXISTS mentions_config_fetched_idx
    ON mentions (config_id, fetched_at DESC);
CREATE INDEX IF NOT EXISTS mentions_config_risk_idx
    ON mentions (config_id, risk_score);

CREATE TABLE IF NOT EXISTS job_log (
    id          BIGSERIAL PRIMARY KEY,
    run_id      UUID NOT NULL,
    config_id   UUID NOT NULL,
    stage       TEXT NOT NULL,
    status      TEXT NOT NULL,
    fetched     INT NOT NULL DEFAULT 0,
    stored      INT NOT NULL DEFAULT 0,
    error_text  TEXT,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS job_log_config_started_idx
    ON job_log (config_id, started_at DESC);
`

// EnsureSchema creates the pipeline tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
