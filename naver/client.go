// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

// Package naver is a client for the Naver local search open API.
package naver

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jcodagnone/matjip/utils/httputils"
)

// DefaultBaseURL is the Naver open API endpoint.
const DefaultBaseURL = "https://openapi.naver.com"

// Headers carrying the application credentials.
const (
	headerClientID     = "X-Naver-Client-Id"
	headerClientSecret = "X-Naver-Client-Secret"
)

// Config configuration for Client.
type Config struct {
	// ClientID is the application id issued by the Naver developer console
	ClientID string

	// ClientSecret is the application secret
	ClientSecret string

	// BaseURL overrides DefaultBaseURL, used by tests
	BaseURL string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// Timeout for a whole search request
	Timeout time.Duration
}

// ConfigFromEnv reads credentials from NAVER_CLIENT_ID and NAVER_CLIENT_SECRET.
func ConfigFromEnv() Config {
	return Config{
		ClientID:     strings.TrimSpace(os.Getenv("NAVER_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("NAVER_CLIENT_SECRET")),
	}
}

// Client searches places in the Naver local search API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new client. Both credentials are required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	var httpLogWriter io.Writer
	if cfg.EnableHTTPTrace || cfg.EnableHTTPBodyTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:        httpLogWriter,
		DumpBody:      cfg.EnableHTTPBodyTrace,
		Transport:     transport,
		RedactHeaders: []string{headerClientSecret},
	}

	userAgent := "matjip/unknown"
	if cfg.UserAgent != "" {
		userAgent = cfg.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent":       userAgent,
			"Accept":           "application/json",
			headerClientID:     cfg.ClientID,
			headerClientSecret: cfg.ClientSecret,
		},
		Transport: loggingTransport,
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Transport: headerTransport,
		},
	}, nil
}
