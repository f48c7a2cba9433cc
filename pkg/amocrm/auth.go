package amocrm

import (
	"context"
	"errors"
	"net/url"

	httpclient "github.com/natserract/amocrm/pkg/http"
	"go.uber.org/zap"
)

// authenticate exchanges the login and API key for a session cookie. The server must
// answer with auth: true.
func (s *Session) authenticate(ctx context.Context) error {
	endpoint, err := httpclient.BuildURL(s.config.Host(), opAuth.path, url.Values{"type": []string{"json"}})
	if err != nil {
		return err
	}
	s.logger.Info("Authenticating with amoCRM", zap.String("url", endpoint), zap.String("login", s.config.Login))

	form := url.Values{
		"USER_LOGIN": []string{s.config.Login},
		"USER_HASH":  []string{s.config.APIKey},
	}

	resp, err := s.httpClient.PostForm(ctx, endpoint, nil, form)
	if err != nil {
		s.logger.Error("Authentication request failed", zap.Error(err), zap.String("url", endpoint))
		return err
	}

	result, err := normalize(opAuth, resp)
	if err != nil {
		s.logger.Error("Authentication failed",
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err))

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return &AuthenticationError{Reason: apiErr.Message, Err: err}
		}
		return &AuthenticationError{Reason: "unreadable authentication response", Err: err}
	}

	if ok, _ := result.Map()["auth"].(bool); !ok {
		s.logger.Error("Authentication rejected", zap.Int("status_code", resp.StatusCode))
		return &AuthenticationError{Reason: "server did not confirm authorization"}
	}

	s.logger.Info("Successfully authenticated", zap.Int64("server_time", result.ServerTime))
	return nil
}
