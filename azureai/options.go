// Copyright (c) Microsoft. All rights reserved.

package azureai

import "net/http"

// clientConfig holds resolved configuration for the Agents [Client].
type clientConfig struct {
	apiVersion string
	httpClient *http.Client
	headers    map[string]string
}

// ClientOption configures an Agents [Client].
type ClientOption func(*clientConfig)

// WithAPIVersion overrides the api-version query parameter sent on every
// request. Defaults to the version the package was built against.
func WithAPIVersion(version string) ClientOption {
	return func(c *clientConfig) { c.apiVersion = version }
}

// WithHTTPClient provides a custom http.Client for requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *clientConfig) { c.headers = headers }
}
