// Package catalogfeed предоставляет клиент для удалённого хранилища документов каталога.
package catalogfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmeshcher/astren/internal/model"
)

// Коллекции документов во внешнем хранилище.
const (
	CollectionMenuItems = "menuItems"
	CollectionDeals     = "dailyDeals"
)

// ErrNotConfigured возвращается, если адрес хранилища не задан.
var ErrNotConfigured = errors.New("catalog feed client not configured")

// Client инкапсулирует HTTP-взаимодействие с хранилищем документов каталога.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Result описывает ответ хранилища по одной коллекции.
// StatusCode 204 означает пустую коллекцию, 429 требует подождать RetryAfter.
type Result[T any] struct {
	Documents  []T
	StatusCode int
	RetryAfter time.Duration
}

// NewClient создаёт HTTP-клиент для обращения к хранилищу по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Configured сообщает, задан ли адрес хранилища.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// FetchMenuItems запрашивает коллекцию позиций меню.
func (c *Client) FetchMenuItems(ctx context.Context) (Result[model.MenuItem], error) {
	return fetch[model.MenuItem](ctx, c, CollectionMenuItems)
}

// FetchDeals запрашивает коллекцию акций.
func (c *Client) FetchDeals(ctx context.Context) (Result[model.Deal], error) {
	return fetch[model.Deal](ctx, c, CollectionDeals)
}

func fetch[T any](ctx context.Context, c *Client, collection string) (Result[T], error) {
	if !c.Configured() {
		return Result[T]{}, ErrNotConfigured
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	url := fmt.Sprintf("%s/api/collections/%s", base, collection)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result[T]{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result[T]{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	res := Result[T]{StatusCode: resp.StatusCode}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				res.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
		return res, nil
	case http.StatusNoContent:
		return res, nil
	case http.StatusOK:
	default:
		return res, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&res.Documents); err != nil {
		return res, fmt.Errorf("decode %s: %w", collection, err)
	}

	return res, nil
}
