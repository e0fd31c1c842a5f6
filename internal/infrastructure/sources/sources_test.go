package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTwitterSearchParsesResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Acme OR recall" {
			t.Errorf("unexpected query: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"unknown_key": {"ignored": true},
			"results": [
				{
					"id_str": "100",
					"full_text": "Acme recall rumor",
					"user": {"screen_name": "skeptic", "name": "A Skeptic"},
					"favorite_count": 12,
					"retweet_count": 3,
					"reply_count": 1,
					"created_at": "Mon Jan 02 15:04:05 -0700 2006",
					"media": [{"media_url_https": "https://img.example/1.jpg"}]
				},
				{"id_str": "101", "full_text": "plain tweet", "user": {"screen_name": "other"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewTwitterClient(server.URL, "test-key", server.Client())
	items, err := client.Search(context.Background(), "Acme OR recall", 50)
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.NativeID != "100" {
		t.Fatalf("unexpected native id: %s", first.NativeID)
	}
	if first.AuthorHandle != "skeptic" || first.AuthorName != "A Skeptic" {
		t.Fatalf("unexpected author: %+v", first)
	}
	if first.Likes != 12 || first.Shares != 3 || first.Comments != 1 {
		t.Fatalf("unexpected engagement: %+v", first)
	}
	if first.PublishedAt.IsZero() {
		t.Fatal("expected a parsed timestamp")
	}
	if len(first.MediaURLs) != 1 {
		t.Fatalf("expected 1 media url, got %d", len(first.MediaURLs))
	}
	if len(first.Raw) == 0 {
		t.Fatal("expected raw payload to be retained")
	}
}

func TestTwitterSearchUnknownShapeReturnsEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"statuses": {"nested": "object"}}`))
	}))
	defer server.Close()

	client := NewTwitterClient(server.URL, "", server.Client())
	items, err := client.Search(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty result, got %d items", len(items))
	}
}

func TestTwitterSearchServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewTwitterClient(server.URL, "", server.Client())
	if _, err := client.Search(context.Background(), "anything", 10); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestRedditSearchParsesListing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"kind": "Listing",
			"data": {
				"children": [
					{"kind": "t3", "data": {
						"id": "abc123",
						"title": "Acme recall megathread",
						"selftext": "post body",
						"author": "mod_user",
						"permalink": "/r/news/comments/abc123/acme/",
						"ups": 450,
						"num_comments": 231,
						"created_utc": 1736000000
					}}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewRedditClient(server.URL, "", server.Client())
	items, err := client.Search(context.Background(), "Acme", 25)
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.NativeID != "abc123" {
		t.Fatalf("unexpected native id: %s", item.NativeID)
	}
	if item.URL != "https://www.reddit.com/r/news/comments/abc123/acme/" {
		t.Fatalf("unexpected url: %s", item.URL)
	}
	if item.Likes != 450 || item.Comments != 231 {
		t.Fatalf("unexpected engagement: %+v", item)
	}
	if item.PublishedAt != time.Unix(1736000000, 0).UTC() {
		t.Fatalf("unexpected published time: %v", item.PublishedAt)
	}
}

func TestForumSearchSkipsMalformedEntries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"posts": [
				{"id": "f-1", "subject": "Acme thread", "body": "text", "username": "u1",
				 "created_at": "2026-02-01T10:00:00Z"},
				"not an object",
				{"id": "f-2", "subject": "Another", "body": "more", "username": "u2"}
			]
		}`))
	}))
	defer server.Close()

	client := NewForumClient(server.URL, "", server.Client())
	items, err := client.Search(context.Background(), "Acme", 25)
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected malformed entry to be skipped, got %d items", len(items))
	}
	if items[0].PublishedAt.IsZero() {
		t.Fatal("expected parsed timestamp on first item")
	}
}

func TestNewsSearchScrapesArticles(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	  <article>
	    <h3 class="title">Acme faces recall questions</h3>
	    <a href="https://news.example/acme-recall">read</a>
	    <p class="snippet">Regulators are asking questions.</p>
	    <span class="source">Example Times</span>
	    <time datetime="2026-03-01T08:00:00Z">March 1</time>
	  </article>
	  <article>
	    <a href="https://news.example/acme-recall">duplicate link</a>
	  </article>
	  <article>
	    <h3>No link article</h3>
	  </article>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	client := NewNewsClient(server.URL, server.Client())
	items, err := client.Search(context.Background(), "Acme", 10)
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected duplicate and linkless articles dropped, got %d items", len(items))
	}

	item := items[0]
	if item.NativeID != "https://news.example/acme-recall" {
		t.Fatalf("unexpected native id: %s", item.NativeID)
	}
	if item.Title != "Acme faces recall questions" {
		t.Fatalf("unexpected title: %s", item.Title)
	}
	if item.AuthorName != "Example Times" {
		t.Fatalf("unexpected source: %s", item.AuthorName)
	}
	if item.PublishedAt.IsZero() {
		t.Fatal("expected parsed datetime")
	}
}

func TestNewsSearchRespectsLimit(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	  <article><a href="https://news.example/1">1</a></article>
	  <article><a href="https://news.example/2">2</a></article>
	  <article><a href="https://news.example/3">3</a></article>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	client := NewNewsClient(server.URL, server.Client())
	items, err := client.Search(context.Background(), "Acme", 2)
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(items))
	}
}
