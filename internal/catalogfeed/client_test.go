package catalogfeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/astren/internal/model"
)

func TestFetchMenuItems_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/collections/menuItems", r.URL.Path)

		items := []model.MenuItem{
			{ID: "main-beef-scallops", Category: model.CategoryMains, Name: model.Text{EN: "Beef Scallops"}, Price: 9.9},
			{ID: "soup-broccoli", Category: model.CategorySoups, Price: 3.89},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(items))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := client.FetchMenuItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Zero(t, res.RetryAfter)
	require.Len(t, res.Documents, 2)
	assert.Equal(t, "main-beef-scallops", res.Documents[0].ID)
	assert.Equal(t, "Beef Scallops", res.Documents[0].Name.EN)
	assert.Equal(t, 3.89, res.Documents[1].Price)
}

func TestFetchDeals_DecodesRules(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/collections/dailyDeals", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"deal2","title":{"en":"Employee Lunch Offer"},"isActive":true,
			 "rules":{"mainCourseCount":1,"giftOptions":["soup-broccoli"]}},
			{"id":"offer1","title":{"en":"Dinner for Two"},"isActive":false}
		]`))
	}))
	defer ts.Close()

	res, err := NewClient(ts.URL).FetchDeals(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Documents, 2)

	d := res.Documents[0]
	assert.True(t, d.IsActive)
	require.NotNil(t, d.Rules)
	assert.Equal(t, 1, d.Rules.MainCourseCount)
	assert.Equal(t, []string{"soup-broccoli"}, d.Rules.GiftOptions)
	assert.Nil(t, res.Documents[1].Rules)
}

func TestFetch_TooManyRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	res, err := NewClient(ts.URL).FetchDeals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, 5*time.Second, res.RetryAfter)
	assert.Empty(t, res.Documents)
}

func TestFetch_NoContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	res, err := NewClient(ts.URL).FetchMenuItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Empty(t, res.Documents)
}

func TestFetch_UnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	res, err := NewClient(ts.URL).FetchMenuItems(context.Background())
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestFetch_AddsSchemeToBareAddress(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := NewClient(strings.TrimPrefix(ts.URL, "http://") + "/")
	res, err := client.FetchDeals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestFetch_NotConfigured(t *testing.T) {
	_, err := NewClient("").FetchMenuItems(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	var nilClient *Client
	assert.False(t, nilClient.Configured())
}
