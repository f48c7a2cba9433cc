// Package amocrm provides a client for the amoCRM v2 private REST API.
//
// amoCRM is a sales CRM built around leads moving through pipeline stages. Its v2 API
// authenticates a login / API key pair once and then identifies the caller by session
// cookie, so a Session keeps one cookie-persistent HTTP client for its whole lifetime.
//
// Reads (contacts/list, leads/list, ...) send only the filters the caller set, plus an
// optional If-Modified-Since header for incremental sync. Writes wrap the payload in the
// {"request": {"<entity>": ...}} envelope. Responses are unwrapped from their "response"
// envelope into a Result; an empty response becomes Result.Ack.
//
// Account metadata (custom field and lead status definitions) is fetched on first use and
// cached until Invalidate is called.
package amocrm

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/natserract/amocrm/pkg/config"
	httpclient "github.com/natserract/amocrm/pkg/http"
	"go.uber.org/zap"
)

// Session is one authenticated handle to the amoCRM API.
type Session struct {
	id         uuid.UUID
	config     *config.Config
	httpClient *httpclient.Client
	cache      *accountCache
	logger     *zap.Logger
}

// accountCache holds the account metadata with thread-safe access
type accountCache struct {
	mu    sync.RWMutex
	entry *accountEntry
}

// accountEntry is the account metadata and the indexes derived from it. It is never
// mutated after creation.
type accountEntry struct {
	account      *AccountInfo
	customFields map[string]map[string]ID
	leadStatuses map[string]ID
}

// NewSession authenticates and returns a Session with the default production logger.
func NewSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	logger, _ := zap.NewProduction()
	return NewSessionWithLogger(ctx, cfg, logger)
}

// NewSessionWithLogger authenticates and returns a Session that logs to logger.
// If authentication fails no Session is returned and the transport is released.
func NewSessionWithLogger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	id := uuid.New()
	logger = logger.With(zap.String("session_id", id.String()), zap.String("subdomain", cfg.Subdomain))

	s := &Session{
		id:     id,
		config: cfg,
		httpClient: httpclient.NewClientWithLogger(logger, httpclient.Options{
			Timeout:    cfg.RequestTimeout(),
			UserAgent:  cfg.Agent(),
			CookieFile: cfg.CookieFile,
		}),
		cache:  &accountCache{},
		logger: logger,
	}

	if err := s.authenticate(ctx); err != nil {
		if closeErr := s.httpClient.Close(); closeErr != nil {
			logger.Warn("Failed to release transport after authentication failure", zap.Error(closeErr))
		}
		return nil, err
	}

	return s, nil
}

// ID returns the correlation id attached to this session's log entries.
func (s *Session) ID() string {
	return s.id.String()
}

// Close releases the transport and, when a cookie file is configured, saves the cookies.
// Operations after Close fail with ErrClosed.
func (s *Session) Close() error {
	if err := s.httpClient.Close(); err != nil {
		return err
	}
	s.logger.Info("Session closed")
	return nil
}

// read performs a list operation.
func (s *Session) read(ctx context.Context, op operation, q listQuery) (*Result, error) {
	req, err := s.buildRead(op, q)
	if err != nil {
		s.logger.Error("Failed to build request", zap.String("op", op.name), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op.name, err)
	}
	return s.execute(ctx, op, req)
}

// write performs a set operation. Empty payloads never reach the network.
func (s *Session) write(ctx context.Context, op operation, payload any) (*Result, error) {
	req, err := s.buildWrite(op, payload)
	if err != nil {
		s.logger.Warn("Write rejected", zap.String("op", op.name), zap.Error(err))
		return nil, err
	}
	return s.execute(ctx, op, req)
}

func (s *Session) execute(ctx context.Context, op operation, req httpclient.RequestOptions) (*Result, error) {
	req.Context = ctx

	s.logger.Debug("Calling API", zap.String("op", op.name), zap.String("url", req.URL))
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("API request failed", zap.String("op", op.name), zap.Error(err))
		return nil, err
	}

	result, err := normalize(op, resp)
	if err != nil {
		s.logger.Error("API call failed",
			zap.String("op", op.name),
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("API call succeeded",
		zap.String("op", op.name),
		zap.Int("status_code", resp.StatusCode),
		zap.Bool("ack", result.Ack))
	return result, nil
}
