// Package apiclient talks to the request-tracking HTTP API. Every failure,
// transport or status, comes back as *errs.OperationFailed.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gimaevra94/serviceflow-console/consts"
	"github.com/gimaevra94/serviceflow-console/errs"
	"github.com/gimaevra94/serviceflow-console/structs"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

func (c *Client) GetMe(ctx context.Context, apiKey string) (*structs.User, error) {
	var user structs.User
	if err := c.do(ctx, "get_me", http.MethodGet, consts.APIMe, apiKey, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListRequests appends query to the path as is; build it with Query.
func (c *Client) ListRequests(ctx context.Context, apiKey, query string) ([]structs.Request, error) {
	var reqs []structs.Request
	err := c.do(ctx, "list_requests", http.MethodGet, consts.APIRequests+query, apiKey, nil, &reqs)
	return reqs, err
}

func (c *Client) ListQueue(ctx context.Context, apiKey string) ([]structs.Request, error) {
	var reqs []structs.Request
	err := c.do(ctx, "list_queue", http.MethodGet, consts.APIQueue, apiKey, nil, &reqs)
	return reqs, err
}

func (c *Client) ListMyRequests(ctx context.Context, apiKey string) ([]structs.Request, error) {
	var reqs []structs.Request
	err := c.do(ctx, "list_my_requests", http.MethodGet, consts.APIMy, apiKey, nil, &reqs)
	return reqs, err
}

func (c *Client) ListAssignedToMe(ctx context.Context, apiKey string) ([]structs.Request, error) {
	var reqs []structs.Request
	err := c.do(ctx, "list_assigned_to_me", http.MethodGet, consts.APIAssignedToMe, apiKey, nil, &reqs)
	return reqs, err
}

func (c *Client) ListUsers(ctx context.Context, apiKey string) ([]structs.User, error) {
	var users []structs.User
	err := c.do(ctx, "list_users", http.MethodGet, consts.APIUsers, apiKey, nil, &users)
	return users, err
}

func (c *Client) CreateRequest(ctx context.Context, apiKey string, payload structs.NewRequest) (*structs.Request, error) {
	var req structs.Request
	if err := c.do(ctx, "create_request", http.MethodPost, consts.APIRequests, apiKey, payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) GetRequest(ctx context.Context, apiKey string, id int) (*structs.Request, error) {
	var req structs.Request
	path := consts.APIRequests + "/" + strconv.Itoa(id)
	if err := c.do(ctx, "get_request", http.MethodGet, path, apiKey, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) RequestHistory(ctx context.Context, apiKey string, id int) ([]structs.RequestLog, error) {
	var logs []structs.RequestLog
	path := consts.APIRequests + "/" + strconv.Itoa(id) + "/history"
	err := c.do(ctx, "request_history", http.MethodGet, path, apiKey, nil, &logs)
	return logs, err
}

// Health needs no key; a degraded backend still answers 200.
func (c *Client) Health(ctx context.Context) (*structs.Health, error) {
	var h structs.Health
	if err := c.do(ctx, "health", http.MethodGet, consts.APIHealth, "", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func buildHeaders(h http.Header, apiKey string) {
	h.Set(consts.ContentTypeHeader, consts.JSONContentType)
	if apiKey != "" {
		h.Set(consts.APIKeyHeader, apiKey)
	}
}

func (c *Client) do(ctx context.Context, op, method, path, apiKey string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errs.Failed(err.Error())
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errs.Failed(err.Error())
	}
	buildHeaders(req.Header, apiKey)

	log := logrus.WithFields(logrus.Fields{"op": op, "method": method, "path": path})
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observe(op, "transport_error", start)
		log.WithError(err).Warn("api call failed")
		return errs.Failed(err.Error())
	}
	defer resp.Body.Close()

	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": time.Since(start)})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observe(op, strconv.Itoa(resp.StatusCode), start)
		msg := failureMessage(resp)
		log.WithField("detail", msg).Warn("api call rejected")
		return errs.Failed(msg)
	}
	observe(op, strconv.Itoa(resp.StatusCode), start)
	log.Debug("api call")

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Failed("invalid response body: " + err.Error())
	}
	return nil
}

// failureMessage prefers a string "detail" from the body, then the status phrase.
func failureMessage(resp *http.Response) string {
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		if detail, ok := payload["detail"].(string); ok {
			return detail
		}
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
