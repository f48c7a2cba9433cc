package http

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildURL joins path onto baseURL's path and attaches the non-empty query values.
func BuildURL(baseURL, path string, queryParams url.Values) (string, error) {
	// Parse the base URL
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("error parsing base URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	parsedURL.Path = strings.TrimSuffix(parsedURL.Path, "/") + "/" + strings.TrimPrefix(path, "/")

	q := url.Values{}
	for key, values := range queryParams {
		for _, value := range values {
			if value == "" {
				continue
			}
			q.Add(key, value)
		}
	}
	parsedURL.RawQuery = q.Encode()

	// Return the full URL as a string
	return parsedURL.String(), nil
}
