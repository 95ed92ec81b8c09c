// Package client обращается к HTTP API прогресса и справочных данных.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"github.com/IT-Nick/mathquiz/middleware"
)

const (
	defaultTimeout = 10 * time.Second
	tokenTTL       = 5 * time.Minute
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("not authorized")
)

// APIError ответ API с ошибкой
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Unwrap позволяет сравнивать ошибку с ErrNotFound, ErrConflict и другими по статусу
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	}
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Client HTTP клиент API
type Client struct {
	baseURL    string
	httpClient *http.Client
	jwtSecret  string
}

// Option настройка клиента
type Option func(*Client)

// WithHTTPClient задает HTTP клиент
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithJWTSecret включает подпись запросов токеном с user_id
func WithJWTSecret(secret string) Option {
	return func(cl *Client) { cl.jwtSecret = secret }
}

// New создает новый экземпляр Client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListModules получает список модулей
func (c *Client) ListModules(ctx context.Context) ([]model.Module, error) {
	var modules []model.Module
	if err := c.do(ctx, http.MethodGet, "/api/modules", nil, 0, nil, &modules); err != nil {
		return nil, fmt.Errorf("client.ListModules: %w", err)
	}
	return modules, nil
}

// ListQuestions получает вопросы модуля
func (c *Client) ListQuestions(ctx context.Context, moduleID int64) ([]model.Question, error) {
	query := url.Values{"module_id": {strconv.FormatInt(moduleID, 10)}}
	var questions []model.Question
	if err := c.do(ctx, http.MethodGet, "/api/questions", query, 0, nil, &questions); err != nil {
		return nil, fmt.Errorf("client.ListQuestions: %w", err)
	}
	return questions, nil
}

// GetProgress получает прогресс пользователя; nil если модуль не начат
func (c *Client) GetProgress(ctx context.Context, userID, moduleID int64) (*model.Progress, error) {
	query := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
	var progress *model.Progress
	if err := c.do(ctx, http.MethodGet, progressPath(moduleID), query, userID, nil, &progress); err != nil {
		return nil, fmt.Errorf("client.GetProgress: %w", err)
	}
	return progress, nil
}

// SaveProgress создает или обновляет прогресс
func (c *Client) SaveProgress(ctx context.Context, userID, moduleID int64, update model.ProgressUpdate) (*model.Progress, error) {
	body := struct {
		UserID int64 `json:"user_id"`
		model.ProgressUpdate
	}{UserID: userID, ProgressUpdate: update}

	var progress *model.Progress
	if err := c.do(ctx, http.MethodPost, progressPath(moduleID), nil, userID, body, &progress); err != nil {
		return nil, fmt.Errorf("client.SaveProgress: %w", err)
	}
	return progress, nil
}

// DeleteProgress удаляет прогресс (перезапуск модуля)
func (c *Client) DeleteProgress(ctx context.Context, userID, moduleID int64) error {
	query := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
	if err := c.do(ctx, http.MethodDelete, progressPath(moduleID), query, userID, nil, nil); err != nil {
		return fmt.Errorf("client.DeleteProgress: %w", err)
	}
	return nil
}

func progressPath(moduleID int64) string {
	return "/api/modules/" + strconv.FormatInt(moduleID, 10) + "/progress"
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, userID int64, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.jwtSecret != "" && userID > 0 {
		token, err := middleware.NewToken(c.jwtSecret, userID, tokenTTL)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w: %w", model.ErrMalformedPayload, err)
	}
	return nil
}
