package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

// ErrNotFound marks a missing configuration.
var ErrNotFound = errors.New("configuration not found")

var configColumns = []string{
	"id", "entity_name", "aliases", "handles", "ontology", "platforms",
	"active", "created_at", "updated_at",
}

// ConfigurationRepository persists monitoring configurations.
type ConfigurationRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ConfigurationStore = (*ConfigurationRepository)(nil)

// NewConfigurationRepository wires a pgx connection pool.
func NewConfigurationRepository(pool *pgxpool.Pool) *ConfigurationRepository {
	return &ConfigurationRepository{pool: pool}
}

// Create inserts a new configuration and returns it with generated fields.
func (r *ConfigurationRepository) Create(ctx context.Context, cfg domain.Configuration) (domain.Configuration, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	aliases, handles, ontology, platforms, err := marshalConfigFields(cfg)
	if err != nil {
		return domain.Configuration{}, err
	}

	query, args, err := builder.Insert("monitoring_configurations").
		Columns(configColumns...).
		Values(cfg.ID, cfg.EntityName, aliases, handles, ontology, platforms,
			cfg.Active, cfg.CreatedAt, cfg.UpdatedAt).
		ToSql()
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("build config insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return domain.Configuration{}, fmt.Errorf("insert configuration: %w", err)
	}
	return cfg, nil
}

// Get returns one configuration by id.
func (r *ConfigurationRepository) Get(ctx context.Context, id string) (domain.Configuration, error) {
	query, args, err := builder.Select(configColumns...).
		From("monitoring_configurations").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("build config query: %w", err)
	}
	return r.queryOne(ctx, query, args...)
}

// Update replaces the mutable fields wholesale; identity is immutable.
func (r *ConfigurationRepository) Update(ctx context.Context, cfg domain.Configuration) error {
	aliases, handles, ontology, platforms, err := marshalConfigFields(cfg)
	if err != nil {
		return err
	}

	query, args, err := builder.Update("monitoring_configurations").
		Set("aliases", aliases).
		Set("handles", handles).
		Set("ontology", ontology).
		Set("platforms", platforms).
		Set("active", cfg.Active).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": cfg.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build config update: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update configuration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive activates one configuration and deactivates all others inside a
// single transaction, preserving the single-active invariant under
// concurrent callers.
func (r *ConfigurationRepository) SetActive(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set-active: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE monitoring_configurations SET active = FALSE, updated_at = NOW() WHERE active`); err != nil {
		return fmt.Errorf("deactivate configurations: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE monitoring_configurations SET active = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("activate configuration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// Active returns the single active configuration.
func (r *ConfigurationRepository) Active(ctx context.Context) (domain.Configuration, error) {
	query, args, err := builder.Select(configColumns...).
		From("monitoring_configurations").
		Where("active").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("build active query: %w", err)
	}
	return r.queryOne(ctx, query, args...)
}

func (r *ConfigurationRepository) queryOne(ctx context.Context, query string, args ...any) (domain.Configuration, error) {
	row := r.pool.QueryRow(ctx, query, args...)

	var (
		cfg          domain.Configuration
		aliasesRaw   []byte
		handlesRaw   []byte
		ontologyRaw  []byte
		platformsRaw []byte
	)
	err := row.Scan(&cfg.ID, &cfg.EntityName, &aliasesRaw, &handlesRaw, &ontologyRaw,
		&platformsRaw, &cfg.Active, &cfg.CreatedAt, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Configuration{}, ErrNotFound
	}
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("scan configuration: %w", err)
	}

	if err := json.Unmarshal(aliasesRaw, &cfg.Aliases); err != nil {
		return domain.Configuration{}, fmt.Errorf("unmarshal aliases: %w", err)
	}
	if err := json.Unmarshal(handlesRaw, &cfg.Handles); err != nil {
		return domain.Configuration{}, fmt.Errorf("unmarshal handles: %w", err)
	}
	if err := json.Unmarshal(ontologyRaw, &cfg.Ontology); err != nil {
		return domain.Configuration{}, fmt.Errorf("unmarshal ontology: %w", err)
	}
	if err := json.Unmarshal(platformsRaw, &cfg.Platforms); err != nil {
		return domain.Configuration{}, fmt.Errorf("unmarshal platforms: %w", err)
	}

	return cfg, nil
}

func marshalConfigFields(cfg domain.Configuration) (aliases, handles, ontology, platforms []byte, err error) {
	if aliases, err = json.Marshal(emptySlice(cfg.Aliases)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal aliases: %w", err)
	}
	handleMap := cfg.Handles
	if handleMap == nil {
		handleMap = map[domain.Platform]string{}
	}
	if handles, err = json.Marshal(handleMap); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal handles: %w", err)
	}
	if ontology, err = json.Marshal(cfg.Ontology); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal ontology: %w", err)
	}
	platformList := cfg.Platforms
	if platformList == nil {
		platformList = []domain.Platform{}
	}
	if platforms, err = json.Marshal(platformList); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal platforms: %w", err)
	}
	return aliases, handles, ontology, platforms, nil
}
