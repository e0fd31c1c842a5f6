package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
)

// SourceItem is the loose, platform-native shape a source client returns.
// Each client owns its own wire protocol and maps its ad hoc response into
// this structure; Raw keeps the original payload verbatim for audit.
type SourceItem struct {
	NativeID     string
	Title        string
	Text         string
	URL          string
	AuthorHandle string
	AuthorName   string
	Likes        int64
	Shares       int64
	Comments     int64
	MediaURLs    []string
	PublishedAt  time.Time
	Raw          json.RawMessage
}

// SourceClient fetches platform-native items for a search query. Clients
// tolerate unrecognized response shapes and return an empty list rather
// than an error when the payload is missing expected keys.
type SourceClient interface {
	Platform() domain.Platform
	Search(ctx context.Context, query string, limit int) ([]SourceItem, error)
}

// MentionStore persists mentions with dedup on the (platform, post_id)
// natural key. Insert reports stored=false for a silently discarded
// duplicate; that is a no-op, not an error.
type MentionStore interface {
	Insert(ctx context.Context, m domain.Mention) (stored bool, err error)
	Unscored(ctx context.Context, configID string, limit int) ([]domain.Mention, error)
	Incomplete(ctx context.Context, configID string, limit int) ([]domain.Mention, error)
	ByIDs(ctx context.Context, ids []string) ([]domain.Mention, error)
	FactCheckCandidates(ctx context.Context, configID string, minRisk float64) ([]domain.Mention, error)
	SaveAnalysis(ctx context.Context, mentionID string, a domain.Analysis) error
	SaveFactCheck(ctx context.Context, mentionID string, fc domain.FactCheck) error
}

// ConfigurationStore manages monitoring configurations. SetActive enforces
// the single-active invariant transactionally: activating one configuration
// deactivates all others.
type ConfigurationStore interface {
	Create(ctx context.Context, cfg domain.Configuration) (domain.Configuration, error)
	Get(ctx context.Context, id string) (domain.Configuration, error)
	Update(ctx context.Context, cfg domain.Configuration) error
	SetActive(ctx context.Context, id string) error
	Active(ctx context.Context) (domain.Configuration, error)
}

// AuditStore writes one job-log row per stage outcome.
type AuditStore interface {
	RecordStage(ctx context.Context, rec domain.StageRecord) error
	RecentStages(ctx context.Context, configID string, limit int) ([]domain.StageRecord, error)
}

// Classifier scores a mention's text for reputational risk.
type Classifier interface {
	Classify(ctx context.Context, text, entityName string) (domain.RiskScoreResult, error)
}

// EvidenceSearcher gathers web evidence for fact-checking.
type EvidenceSearcher interface {
	Search(ctx context.Context, query string) ([]domain.Evidence, error)
}

// Synthesizer drafts a publish-ready response from content and evidence.
type Synthesizer interface {
	Draft(ctx context.Context, entityName, content string, evidence []domain.Evidence) (domain.ResponseDraft, error)
}

// Grouper hands a scored mention to the narrative-grouping service.
// Best-effort: callers log and ignore failures.
type Grouper interface {
	Assign(ctx context.Context, mentionID, configID string) error
}

// Scheduler controls when orchestration runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
