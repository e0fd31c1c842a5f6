package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

// ForumClient fetches threads from a generic forum search API.
type ForumClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ ports.SourceClient = (*ForumClient)(nil)

// NewForumClient wires an HTTP client; client may be nil.
func NewForumClient(baseURL, apiKey string, client *http.Client) *ForumClient {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &ForumClient{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Platform identifies the client inside the registry.
func (c *ForumClient) Platform() domain.Platform {
	return domain.PlatformForum
}

// Search fetches up to limit threads for the query.
func (c *ForumClient) Search(ctx context.Context, query string, limit int) ([]ports.SourceItem, error) {
	endpoint := fmt.Sprintf("%s/posts?query=%s&page_size=%d", c.baseURL, url.QueryEscape(query), limit)

	body, err := getJSON(ctx, c.client, endpoint, c.apiKey)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Posts []json.RawMessage `json:"posts"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil
	}

	items := make([]ports.SourceItem, 0, len(payload.Posts))
	for _, raw := range payload.Posts {
		var post struct {
			ID        string `json:"id"`
			Subject   string `json:"subject"`
			Body      string `json:"body"`
			Username  string `json:"username"`
			Link      string `json:"link"`
			Upvotes   int64  `json:"upvotes"`
			Replies   int64  `json:"replies"`
			CreatedAt string `json:"created_at"`
		}
		if err := json.Unmarshal(raw, &post); err != nil {
			continue
		}

		item := ports.SourceItem{
			NativeID:     post.ID,
			Title:        post.Subject,
			Text:         post.Body,
			URL:          post.Link,
			AuthorHandle: post.Username,
			AuthorName:   post.Username,
			Likes:        post.Upvotes,
			Comments:     post.Replies,
			Raw:          raw,
		}
		if t, err := time.Parse(time.RFC3339, post.CreatedAt); err == nil {
			item.PublishedAt = t
		}
		items = append(items, item)
	}

	return items, nil
}
