package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/filter"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

// DefaultPageSize bounds how many items one agent run requests.
const DefaultPageSize = 50

// Normalizer maps a platform-native item onto the common mention shape.
type Normalizer func(cfg domain.Configuration, item ports.SourceItem) (domain.Mention, error)

// Agent fetches, filters and stores mentions for a single platform. All
// platforms share this control shape; only the client and normalizer differ.
type Agent struct {
	client    ports.SourceClient
	store     ports.MentionStore
	engine    *filter.Engine
	cfg       domain.Configuration
	criteria  domain.FilterCriteria
	normalize Normalizer
	pageSize  int
	logger    zerolog.Logger
}

// AgentOption tweaks an agent at construction time.
type AgentOption func(*Agent)

// WithPageSize overrides the fetch page size.
func WithPageSize(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.pageSize = n
		}
	}
}

// WithNormalizer installs a platform-specific normalization mapping.
func WithNormalizer(n Normalizer) AgentOption {
	return func(a *Agent) {
		if n != nil {
			a.normalize = n
		}
	}
}

// NewAgent wires one platform agent for a configuration.
func NewAgent(client ports.SourceClient, store ports.MentionStore, engine *filter.Engine,
	cfg domain.Configuration, logger zerolog.Logger, opts ...AgentOption) *Agent {
	a := &Agent{
		client:    client,
		store:     store,
		engine:    engine,
		cfg:       cfg,
		criteria:  domain.NewFilterCriteria(cfg, client.Platform()),
		normalize: Normalize,
		pageSize:  DefaultPageSize,
		logger:    logger.With().Str("platform", string(client.Platform())).Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Execute runs one fetch cycle. Item-level failures are accumulated in the
// result's error list without aborting the remaining items; a top-level
// client failure is reported as a single aggregate error with whatever was
// collected so far. Execute itself never returns an error.
func (a *Agent) Execute(ctx context.Context) domain.AgentResult {
	platform := a.client.Platform()
	result := domain.AgentResult{Platform: platform}

	if !a.cfg.PlatformEnabled(platform) {
		return result
	}

	query := a.engine.BuildQuery(a.criteria)
	items, err := a.client.Search(ctx, query, a.pageSize)
	if err != nil {
		result.AddError("search %s: %v", platform, err)
		return result
	}

	for _, item := range items {
		result.Fetched++

		if !a.engine.Matches(itemText(item), item.AuthorHandle, item.AuthorName, a.criteria) {
			continue
		}

		mention, err := a.normalize(a.cfg, item)
		if err != nil {
			result.AddError("normalize %s item: %v", platform, err)
			continue
		}
		mention.Platform = platform

		stored, err := a.store.Insert(ctx, mention)
		if err != nil {
			result.AddError("store %s/%s: %v", platform, mention.PostID, err)
			continue
		}
		if stored {
			result.Stored++
		} else {
			result.Duplicates++
		}
	}

	a.logger.Debug().
		Int("fetched", result.Fetched).
		Int("stored", result.Stored).
		Int("errors", len(result.Errors)).
		Msg("agent run finished")

	return result
}

// Normalize is the default mapping from a source item to a mention.
func Normalize(cfg domain.Configuration, item ports.SourceItem) (domain.Mention, error) {
	if strings.TrimSpace(item.NativeID) == "" {
		return domain.Mention{}, fmt.Errorf("item has no recognizable id")
	}

	published := item.PublishedAt
	if published.IsZero() {
		published = time.Now().UTC()
	}

	return domain.Mention{
		ID:       uuid.NewString(),
		ConfigID: cfg.ID,
		PostID:   item.NativeID,
		Title:    item.Title,
		Content:  item.Text,
		URL:      item.URL,
		Author: domain.Author{
			Handle: item.AuthorHandle,
			Name:   item.AuthorName,
		},
		Engagement: domain.Engagement{
			Likes:    item.Likes,
			Shares:   item.Shares,
			Comments: item.Comments,
		},
		MediaURLs:   item.MediaURLs,
		RawPayload:  item.Raw,
		PublishedAt: published,
	}, nil
}

func itemText(item ports.SourceItem) string {
	if item.Title == "" {
		return item.Text
	}
	return item.Title + " " + item.Text
}
