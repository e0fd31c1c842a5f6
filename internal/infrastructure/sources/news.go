package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

// NewsClient scrapes a news search-results page. The article URL is the
// source-native id: news sites expose no other stable identifier.
type NewsClient struct {
	searchURL string
	client    *http.Client
}

var _ ports.SourceClient = (*NewsClient)(nil)

// NewNewsClient wires an HTTP client; client may be nil.
func NewNewsClient(searchURL string, client *http.Client) *NewsClient {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &NewsClient{searchURL: searchURL, client: client}
}

// Platform identifies the client inside the registry.
func (c *NewsClient) Platform() domain.Platform {
	return domain.PlatformNews
}

// Search scrapes up to limit articles for the query.
func (c *NewsClient) Search(ctx context.Context, query string, limit int) ([]ports.SourceItem, error) {
	endpoint := fmt.Sprintf("%s?q=%s", c.searchURL, url.QueryEscape(query))

	doc, err := c.fetchDocument(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var items []ports.SourceItem
	seen := map[string]struct{}{}

	doc.Find("article").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}

		item, ok := parseArticle(sel)
		if !ok {
			return true
		}
		if _, dup := seen[item.NativeID]; dup {
			return true
		}
		seen[item.NativeID] = struct{}{}
		items = append(items, item)
		return true
	})

	return items, nil
}

func (c *NewsClient) fetchDocument(ctx context.Context, endpoint string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "repushield/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func parseArticle(sel *goquery.Selection) (ports.SourceItem, bool) {
	link := sel.Find("a").First()
	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return ports.SourceItem{}, false
	}

	title := strings.TrimSpace(sel.Find("h2, h3, .title").First().Text())
	if title == "" {
		title = strings.TrimSpace(link.Text())
	}
	snippet := strings.TrimSpace(sel.Find("p, .snippet, .summary").First().Text())
	source := strings.TrimSpace(sel.Find(".source, .publisher").First().Text())

	item := ports.SourceItem{
		NativeID:   href,
		Title:      title,
		Text:       snippet,
		URL:        href,
		AuthorName: source,
	}

	if stamp, ok := sel.Find("time").First().Attr("datetime"); ok {
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(stamp)); err == nil {
			item.PublishedAt = t
		}
	}

	raw, err := json.Marshal(map[string]string{
		"url": href, "title": title, "snippet": snippet, "source": source,
	})
	if err == nil {
		item.Raw = raw
	}

	return item, true
}
