package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Sentiment is the closed label set produced by the classifier.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether s is one of the three accepted labels.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Verdict is the truth status of a fact-checked mention.
type Verdict string

const (
	VerdictTrue       Verdict = "true"
	VerdictFalse      Verdict = "false"
	VerdictMisleading Verdict = "misleading"
	VerdictUnverified Verdict = "unverified"
)

// Author carries the identity fields a source exposes for a post author.
type Author struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
}

// Engagement holds the counters sources report for a post.
type Engagement struct {
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Comments int64 `json:"comments"`
}

// Mention is a normalized social/news item referencing the tracked entity.
// Natural key is (Platform, PostID): duplicate fetches of the same native
// post are rejected by the store, never overwritten. Analysis and FactCheck
// start nil and are filled in place by the scoring and fact-checking stages.
type Mention struct {
	ID         string
	ConfigID   string
	Platform   Platform
	PostID     string
	Title      string
	Content    string
	URL        string
	Author     Author
	Engagement Engagement
	MediaURLs  []string
	// RawPayload keeps the source response verbatim for audit.
	RawPayload  json.RawMessage
	PublishedAt time.Time
	FetchedAt   time.Time

	Analysis  *Analysis
	FactCheck *FactCheck
}

// Analysis holds the derived fields written by the risk-scoring stage.
type Analysis struct {
	Sentiment Sentiment `json:"sentiment"`
	RiskScore float64   `json:"risk_score"`
	Topics    []string  `json:"topics"`
	Keywords  []string  `json:"keywords"`
	Summary   string    `json:"summary"`
	ScoredAt  time.Time `json:"scored_at"`
}

// Scored reports whether the mention carries a risk score.
func (m Mention) Scored() bool {
	return m.Analysis != nil
}

// RiskScoreResult is the raw classifier response before validation.
type RiskScoreResult struct {
	Sentiment string   `json:"sentiment"`
	RiskScore float64  `json:"risk_score"`
	Topics    []string `json:"topics"`
	Keywords  []string `json:"keywords"`
	Summary   string   `json:"summary"`
}

const (
	minRiskScore = 1.0
	maxRiskScore = 10.0
	maxTopics    = 3
	maxKeywords  = 3
	summaryWords = 5
)

// Normalize validates and clamps the classifier output into the shape that
// is persisted: risk score clamped to [1,10] and rounded to one decimal,
// topic/keyword lists truncated to three entries, sentiment defaulted to
// neutral when outside the closed set, summary cut to its first five
// whitespace-separated tokens.
func (r RiskScoreResult) Normalize(now time.Time) Analysis {
	score := r.RiskScore
	if score < minRiskScore {
		score = minRiskScore
	}
	if score > maxRiskScore {
		score = maxRiskScore
	}
	score = math.Round(score*10) / 10

	sentiment := Sentiment(strings.ToLower(strings.TrimSpace(r.Sentiment)))
	if !sentiment.Valid() {
		sentiment = SentimentNeutral
	}

	words := strings.Fields(r.Summary)
	if len(words) > summaryWords {
		words = words[:summaryWords]
	}

	return Analysis{
		Sentiment: sentiment,
		RiskScore: score,
		Topics:    truncateList(r.Topics, maxTopics),
		Keywords:  truncateList(r.Keywords, maxKeywords),
		Summary:   strings.Join(words, " "),
		ScoredAt:  now,
	}
}

func truncateList(values []string, limit int) []string {
	out := make([]string, 0, limit)
	for _, v := range values {
		if len(out) == limit {
			break
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Evidence is one web-search hit gathered while fact-checking.
type Evidence struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// ResponseDraft is the publish-ready response produced by the synthesis call.
type ResponseDraft struct {
	Text      string   `json:"text"`
	Tone      string   `json:"tone"`
	KeyPoints []string `json:"key_points"`
}

// FactCheck is the combined evidence, verdict and draft written back onto a
// mention by the fact-checking stage.
type FactCheck struct {
	Verdict   Verdict       `json:"verdict"`
	Evidence  []Evidence    `json:"evidence"`
	Draft     ResponseDraft `json:"draft"`
	CheckedAt time.Time     `json:"checked_at"`
}
