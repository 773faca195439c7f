// Package client is a typed wrapper around the users HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"userdesk/m/domain"
)

// DefaultTimeout bounds every request issued by a Client.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response. Message is the server's "message" field,
// or the raw body when the server sent something else.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// IsConflict reports a duplicate email.
func (e *APIError) IsConflict() bool { return e.StatusCode == http.StatusConflict }

// IsNotFound reports a missing user.
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// File is an avatar attached to a create or update.
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// UserInput carries the fields of a create or update. A nil File leaves the
// stored avatar untouched on update.
type UserInput struct {
	Name  string
	Email string
	File  *File
}

// Client talks to one API origin.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a Client for baseURL, e.g. "http://localhost:4000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AvatarURL turns a stored avatar path into an absolute URL. Empty paths
// stay empty.
func (c *Client) AvatarURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + path
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, "", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, userPath(id), nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateUser(ctx context.Context, in UserInput) (*domain.User, error) {
	return c.sendUser(ctx, http.MethodPost, "/api/users", in)
}

func (c *Client) UpdateUser(ctx context.Context, id int64, in UserInput) (*domain.User, error) {
	return c.sendUser(ctx, http.MethodPut, userPath(id), in)
}

// DeleteUser succeeds whether or not the user existed.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	var ack struct {
		Message string `json:"message"`
	}
	return c.do(ctx, http.MethodDelete, userPath(id), nil, "", &ack)
}

func (c *Client) GrowthStats(ctx context.Context) ([]domain.GrowthPoint, error) {
	var points []domain.GrowthPoint
	if err := c.do(ctx, http.MethodGet, "/api/users/stats/growth", nil, "", &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (c *Client) sendUser(ctx context.Context, method, path string, in UserInput) (*domain.User, error) {
	body, contentType, err := encodeUser(in)
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := c.do(ctx, method, path, body, contentType, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// encodeUser builds the multipart body: name, email and an optional
// "avatar" file part.
func encodeUser(in UserInput) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("name", in.Name); err != nil {
		return nil, "", fmt.Errorf("encode name: %w", err)
	}
	if err := w.WriteField("email", in.Email); err != nil {
		return nil, "", fmt.Errorf("encode email: %w", err)
	}

	if in.File != nil {
		contentType := in.File.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="avatar"; filename=%q`, in.File.Name))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("encode avatar: %w", err)
		}
		if _, err := io.Copy(part, in.File.Reader); err != nil {
			return nil, "", fmt.Errorf("encode avatar: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encode body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func newAPIError(status int, raw []byte) *APIError {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return &APIError{StatusCode: status, Message: body.Message}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

func userPath(id int64) string {
	return "/api/users/" + strconv.FormatInt(id, 10)
}
