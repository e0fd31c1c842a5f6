// Package sources contains the per-platform fetch clients. Each client owns
// its own wire protocol and maps its ad hoc response shape onto the common
// SourceItem; unknown shapes yield an empty result, not an error.
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

const defaultHTTPTimeout = 20 * time.Second

// TwitterClient fetches tweets from a scraping-API endpoint.
type TwitterClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ ports.SourceClient = (*TwitterClient)(nil)

// NewTwitterClient wires an HTTP client; client may be nil.
func NewTwitterClient(baseURL, apiKey string, client *http.Client) *TwitterClient {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &TwitterClient{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Platform identifies the client inside the registry.
func (c *TwitterClient) Platform() domain.Platform {
	return domain.PlatformTwitter
}

// Search fetches up to limit tweets for the query.
func (c *TwitterClient) Search(ctx context.Context, query string, limit int) ([]ports.SourceItem, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&count=%d", c.baseURL, url.QueryEscape(query), limit)

	body, err := getJSON(ctx, c.client, endpoint, c.apiKey)
	if err != nil {
		return nil, err
	}

	// Top level is {"results": [...]}; anything else is treated as empty.
	var payload struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil
	}

	items := make([]ports.SourceItem, 0, len(payload.Results))
	for _, raw := range payload.Results {
		var tweet struct {
			ID   string `json:"id_str"`
			Text string `json:"full_text"`
			User struct {
				ScreenName string `json:"screen_name"`
				Name       string `json:"name"`
			} `json:"user"`
			Favorites int64  `json:"favorite_count"`
			Retweets  int64  `json:"retweet_count"`
			Replies   int64  `json:"reply_count"`
			CreatedAt string `json:"created_at"`
			Media     []struct {
				URL string `json:"media_url_https"`
			} `json:"media"`
		}
		if err := json.Unmarshal(raw, &tweet); err != nil {
			continue
		}

		item := ports.SourceItem{
			NativeID:     tweet.ID,
			Text:         tweet.Text,
			URL:          tweetURL(tweet.User.ScreenName, tweet.ID),
			AuthorHandle: tweet.User.ScreenName,
			AuthorName:   tweet.User.Name,
			Likes:        tweet.Favorites,
			Shares:       tweet.Retweets,
			Comments:     tweet.Replies,
			PublishedAt:  parseRubyDate(tweet.CreatedAt),
			Raw:          raw,
		}
		for _, media := range tweet.Media {
			if media.URL != "" {
				item.MediaURLs = append(item.MediaURLs, media.URL)
			}
		}
		items = append(items, item)
	}

	return items, nil
}

func tweetURL(screenName, id string) string {
	if screenName == "" || id == "" {
		return ""
	}
	return fmt.Sprintf("https://twitter.com/%s/status/%s", screenName, id)
}

// parseRubyDate handles Twitter's legacy timestamp format, falling back to
// RFC 3339 and finally the zero time (the store substitutes "now").
func parseRubyDate(value string) time.Time {
	for _, layout := range []string{time.RubyDate, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
