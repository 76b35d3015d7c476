package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/osvaldoandrade/coffeeshop/internal/tracing"
)

type client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type ingredient struct {
	Color string  `json:"color" yaml:"color"`
	Name  string  `json:"name,omitempty" yaml:"name"`
	Parts float64 `json:"parts" yaml:"parts"`
}

// recipeItem is an ingredient as sent on create. A nil Name leaves the key
// out; an empty one is sent as "".
type recipeItem struct {
	Color string  `json:"color" yaml:"color"`
	Name  *string `json:"name,omitempty" yaml:"name"`
	Parts float64 `json:"parts" yaml:"parts"`
}

type drink struct {
	ID     int64        `json:"id"`
	Title  string       `json:"title"`
	Recipe []ingredient `json:"recipe"`
}

type drinksResp struct {
	Success bool    `json:"success"`
	Drinks  []drink `json:"drinks"`
}

type deleteResp struct {
	Success bool  `json:"success"`
	Delete  int64 `json:"delete"`
}

type errorResp struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status int
	Body   errorResp
	Raw    string
}

func (e *apiError) Error() string {
	if e.Body.Message == "" {
		return fmt.Sprintf("error (%d): %s", e.Status, strings.TrimSpace(e.Raw))
	}
	if e.Body.Code != "" {
		return fmt.Sprintf("error (%d): %s [%s]", e.Status, e.Body.Message, e.Body.Code)
	}
	return fmt.Sprintf("error (%d): %s", e.Status, e.Body.Message)
}

func newClient(baseURL, token string) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends body as JSON and decodes a 2xx answer into out.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		ae := &apiError{Status: resp.StatusCode, Raw: string(raw)}
		_ = json.Unmarshal(raw, &ae.Body)
		return ae
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *client) listDrinks(ctx context.Context, detail bool) ([]drink, error) {
	path := "/drinks"
	if detail {
		path = "/drinks-detail"
	}
	var out drinksResp
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Drinks, nil
}

func (c *client) createDrink(ctx context.Context, title string, recipe any) (drink, error) {
	var out drinksResp
	err := c.do(ctx, http.MethodPost, "/drinks", map[string]any{"title": title, "recipe": recipe}, &out)
	if err != nil {
		return drink{}, err
	}
	return firstDrink(out)
}

func (c *client) updateDrink(ctx context.Context, id int64, patch map[string]any) (drink, error) {
	var out drinksResp
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/drinks/%d", id), patch, &out); err != nil {
		return drink{}, err
	}
	return firstDrink(out)
}

func (c *client) deleteDrink(ctx context.Context, id int64) (int64, error) {
	var out deleteResp
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/drinks/%d", id), nil, &out); err != nil {
		return 0, err
	}
	return out.Delete, nil
}

func firstDrink(out drinksResp) (drink, error) {
	if len(out.Drinks) == 0 {
		return drink{}, fmt.Errorf("response carried no drink")
	}
	return out.Drinks[0], nil
}
