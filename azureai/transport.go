// Copyright (c) Microsoft. All rights reserved.

package azureai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"github.com/Bryan-Roe-ai/agents-go/agents"
)

const (
	defaultAPIVersion = "2025-05-01"
	tokenScope        = "https://ai.azure.com/.default"
)

// transport is an unexported interface for HTTP communication.
// The default implementation uses net/http; tests inject a mock.
type transport interface {
	do(ctx context.Context, method, path string, body any) (*http.Response, error)
}

// httpTransport is the default transport using net/http with Entra ID
// bearer authentication.
type httpTransport struct {
	client     *http.Client
	endpoint   string
	apiVersion string
	headers    map[string]string
	credential azcore.TokenCredential
}

func newHTTPTransport(endpoint string, cred azcore.TokenCredential, cfg *clientConfig) *httpTransport {
	t := &httpTransport{
		client:     cfg.httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiVersion: cfg.apiVersion,
		headers:    cfg.headers,
		credential: cred,
	}
	if t.client == nil {
		t.client = http.DefaultClient
	}
	if t.apiVersion == "" {
		t.apiVersion = defaultAPIVersion
	}
	return t
}

func (t *httpTransport) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	u := t.endpoint + path
	if strings.Contains(u, "?") {
		u += "&api-version=" + url.QueryEscape(t.apiVersion)
	} else {
		u += "?api-version=" + url.QueryEscape(t.apiVersion)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if t.credential != nil {
		token, err := t.credential.GetToken(ctx, policy.TokenRequestOptions{
			Scopes: []string{tokenScope},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: get token: %v", agents.ErrAuth, err)
		}
		slog.DebugContext(ctx, "using Entra ID token authentication",
			"token_expires_on", token.ExpiresOn,
		)
		req.Header.Set("Authorization", "Bearer "+token.Token)
	}

	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseErrorResponse(resp)
	}

	return resp, nil
}

// parseErrorResponse reads an error response body and returns a typed error.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = string(body)
	}

	svcErr := &agents.ServiceError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Code:       apiErr.Error.Code,
	}

	switch {
	case resp.StatusCode == 404:
		svcErr.Err = agents.ErrNotFound
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		svcErr.Err = agents.ErrAuth
	case resp.StatusCode == 400:
		svcErr.Err = agents.ErrInvalidRequest
	default:
		svcErr.Err = agents.ErrService
	}

	return svcErr
}
