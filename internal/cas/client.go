package cas

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ClientConfig is the immutable protocol configuration of a Client.
type ClientConfig struct {
	// ServerURL is the base URL of the CAS server, e.g. https://sso.example.edu.
	ServerURL string
	// RoutePrefix is the mount point of the CAS protocol routes, e.g. "cas".
	RoutePrefix string
	// Version is the configured protocol version: "1", "2" or "3".
	Version string
	// Timeout bounds a single validation request. Zero means no timeout.
	Timeout time.Duration
}

// Client validates service tickets against a CAS server. It is safe for
// concurrent use; each call performs one blocking request and is never
// retried.
type Client struct {
	endpoint Endpoint
	version  Version
	http     *http.Client
	logger   *slog.Logger
}

// NewClient builds a Client from the protocol configuration. An
// unsupported version is rejected here, before any request can be made.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	version, err := ParseVersion(cfg.Version)
	if err != nil {
		return nil, err
	}
	return &Client{
		endpoint: Endpoint{ServerURL: cfg.ServerURL, RoutePrefix: cfg.RoutePrefix},
		version:  version,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}, nil
}

// Version reports the configured protocol version.
func (c *Client) Version() Version {
	return c.version
}

// LoginURL builds the CAS login URL for the given service callback.
func (c *Client) LoginURL(service string) (string, error) {
	return c.endpoint.LoginURL(service, LoginOptions{})
}

// LogoutURL builds the CAS logout URL. An empty returnURL omits the
// return-URL parameter entirely.
func (c *Client) LogoutURL(returnURL string) (string, error) {
	var ret *string
	if returnURL != "" {
		ret = &returnURL
	}
	return c.endpoint.LogoutURL(c.version, ret)
}

// ValidateTicket exchanges a service ticket for an identity assertion. It
// builds the version-appropriate validation URL, performs one GET against
// the CAS server and parses the response with the version's parser.
//
// Transport failures, non-200 statuses and malformed responses all degrade
// to an invalid result with a logged diagnostic; the returned error is
// non-nil only for configuration problems.
func (c *Client) ValidateTicket(ctx context.Context, ticket, service string) (*ValidationResult, error) {
	validateURL, err := c.validateURL(service, ticket)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("validating ticket", "version", c.version, "url", validateURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, validateURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build validation request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("CAS validation request failed", "error", err)
		return &ValidationResult{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		c.logger.Error("unexpected status from CAS server", "status", resp.StatusCode)
		return &ValidationResult{}, nil
	}

	result := c.parse(resp.Body)
	if result.Valid {
		c.logger.Debug("ticket accepted", "username", result.Username)
	} else {
		c.logger.Debug("ticket rejected")
	}
	return result, nil
}

func (c *Client) validateURL(service, ticket string) (string, error) {
	switch c.version {
	case V1:
		return c.endpoint.ValidateURL(service, ticket, nil)
	case V2, V3:
		return c.endpoint.ServiceValidateURL(service, ticket, ValidateOptions{})
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedVersion, c.version)
	}
}

// parse dispatches the response body to the parser matching the configured
// version. The parser owns the body and closes it on every path.
func (c *Client) parse(body io.ReadCloser) *ValidationResult {
	switch c.version {
	case V1:
		return parseV1(body, c.logger)
	case V2:
		return parseV2(body, c.logger)
	default:
		return parseV3(body, c.logger)
	}
}
