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

// RedditClient fetches posts via a Reddit search proxy.
type RedditClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ ports.SourceClient = (*RedditClient)(nil)

// NewRedditClient wires an HTTP client; client may be nil.
func NewRedditClient(baseURL, apiKey string, client *http.Client) *RedditClient {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &RedditClient{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Platform identifies the client inside the registry.
func (c *RedditClient) Platform() domain.Platform {
	return domain.PlatformReddit
}

// Search fetches up to limit posts for the query.
func (c *RedditClient) Search(ctx context.Context, query string, limit int) ([]ports.SourceItem, error) {
	endpoint := fmt.Sprintf("%s/search.json?q=%s&limit=%d&sort=new",
		c.baseURL, url.QueryEscape(query), limit)

	body, err := getJSON(ctx, c.client, endpoint, c.apiKey)
	if err != nil {
		return nil, err
	}

	// Listing shape: {"data": {"children": [{"data": {...}}]}}.
	var payload struct {
		Data struct {
			Children []struct {
				Data json.RawMessage `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil
	}

	items := make([]ports.SourceItem, 0, len(payload.Data.Children))
	for _, child := range payload.Data.Children {
		var post struct {
			ID          string  `json:"id"`
			Title       string  `json:"title"`
			SelfText    string  `json:"selftext"`
			Author      string  `json:"author"`
			Permalink   string  `json:"permalink"`
			Ups         int64   `json:"ups"`
			NumComments int64   `json:"num_comments"`
			CreatedUTC  float64 `json:"created_utc"`
			Thumbnail   string  `json:"thumbnail"`
		}
		if err := json.Unmarshal(child.Data, &post); err != nil {
			continue
		}

		item := ports.SourceItem{
			NativeID:     post.ID,
			Title:        post.Title,
			Text:         post.SelfText,
			AuthorHandle: post.Author,
			AuthorName:   post.Author,
			Likes:        post.Ups,
			Comments:     post.NumComments,
			Raw:          child.Data,
		}
		if post.Permalink != "" {
			item.URL = "https://www.reddit.com" + post.Permalink
		}
		if post.CreatedUTC > 0 {
			item.PublishedAt = time.Unix(int64(post.CreatedUTC), 0).UTC()
		}
		if post.Thumbnail != "" && post.Thumbnail != "self" && post.Thumbnail != "default" {
			item.MediaURLs = []string{post.Thumbnail}
		}
		items = append(items, item)
	}

	return items, nil
}
