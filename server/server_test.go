package server_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"magnetrss/cache"
	"magnetrss/feeds"
	"magnetrss/models"
	"magnetrss/server"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	count int
	err   error
	calls int
}

func (r *fakeRefresher) Refresh(_ context.Context) (int, error) {
	r.calls++
	return r.count, r.err
}

func newApp(store *cache.Store, refresher server.Refresher) *fiber.App {
	return server.Server(&server.ServerConfig{
		Cache:     store,
		Refresher: refresher,
		Credentials: func() (string, string) {
			return "admin", "secret"
		},
		Channel: feeds.DefaultChannel(),
	})
}

func items(titles ...string) []models.FeedItem {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	links := make([]models.Link, len(titles))
	for i, title := range titles {
		links[i] = models.Link{Text: title, Href: "magnet:?xt=urn:btih:" + title}
	}
	return feeds.NewItemBuilder(start).Build(links)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestFeedServesCurrentSnapshot(t *testing.T) {
	store := cache.New(nil)
	store.Replace(context.Background(), items("first", "second"), time.Now())
	app := newApp(store, &fakeRefresher{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rss", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, feeds.ContentType, resp.Header.Get(fiber.HeaderContentType))

	feed, err := gofeed.NewParser().ParseString(readBody(t, resp))
	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "first", feed.Items[0].Title)
	assert.Equal(t, "magnet:?xt=urn:btih:second", feed.Items[1].Link)
}

func TestFeedEmptyCache(t *testing.T) {
	app := newApp(cache.New(nil), &fakeRefresher{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rss", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	feed, err := gofeed.NewParser().ParseString(readBody(t, resp))
	require.NoError(t, err)
	assert.Empty(t, feed.Items)
}

func TestFeedCacheFollowsSnapshotVersion(t *testing.T) {
	store := cache.New(nil)
	store.Replace(context.Background(), items("old"), time.Now())
	app := newApp(store, &fakeRefresher{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rss", nil))
	require.NoError(t, err)
	assert.Equal(t, "miss", resp.Header.Get("X-Cache"))
	assert.Contains(t, readBody(t, resp), "<title>old</title>")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/rss", nil))
	require.NoError(t, err)
	assert.Equal(t, "hit", resp.Header.Get("X-Cache"))
	assert.Contains(t, readBody(t, resp), "<title>old</title>")

	store.Replace(context.Background(), items("new"), time.Now())

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/rss", nil))
	require.NoError(t, err)
	assert.Equal(t, "miss", resp.Header.Get("X-Cache"))
	body := readBody(t, resp)
	assert.Contains(t, body, "<title>new</title>")
	assert.NotContains(t, body, "<title>old</title>")
}

func TestRefreshRequiresCredentials(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		expected      int
	}{
		{
			name:     "no credentials",
			expected: http.StatusUnauthorized,
		},
		{
			name:          "wrong password",
			authorization: basicAuth("admin", "admin"),
			expected:      http.StatusUnauthorized,
		},
		{
			name:          "wrong user",
			authorization: basicAuth("root", "secret"),
			expected:      http.StatusUnauthorized,
		},
		{
			name:          "valid credentials",
			authorization: basicAuth("admin", "secret"),
			expected:      http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := &fakeRefresher{count: 3}
			app := newApp(cache.New(nil), refresher)

			req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
			if tt.authorization != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.authorization)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp.StatusCode)

			if tt.expected == http.StatusOK {
				assert.Equal(t, 1, refresher.calls)
			} else {
				assert.Equal(t, 0, refresher.calls)
			}
		})
	}
}

func TestRefreshReturnsItemCount(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			app := newApp(cache.New(nil), &fakeRefresher{count: 7})

			req := httptest.NewRequest(method, "/refresh", nil)
			req.Header.Set(fiber.HeaderAuthorization, basicAuth("admin", "secret"))

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var result map[string]int
			require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &result))
			assert.Equal(t, map[string]int{"items": 7}, result)
		})
	}
}

func TestRefreshFailure(t *testing.T) {
	app := newApp(cache.New(nil), &fakeRefresher{err: errors.New("boom")})

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.Header.Set(fiber.HeaderAuthorization, basicAuth("admin", "secret"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	app := newApp(cache.New(nil), &fakeRefresher{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", readBody(t, resp))
}

func TestMetrics(t *testing.T) {
	app := newApp(cache.New(nil), &fakeRefresher{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(readBody(t, resp), "magnetrss_cache_items"))
}
