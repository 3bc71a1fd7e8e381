package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// TestContext holds state between test steps
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte
	LastRequestID    string

	app     *app
	wallets map[string]wallet
}

type wallet struct {
	Address    string
	PrivateKey string
}

// NewTestContext starts a fresh in-process server for one scenario.
func NewTestContext() *TestContext {
	a := newApp()
	return &TestContext{
		BaseURL: a.server.URL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		app:     a,
		wallets: make(map[string]wallet),
	}
}

// Close stops the scenario's server.
func (tc *TestContext) Close() {
	tc.app.server.Close()
}

// POST sends body as JSON and stores the response
func (tc *TestContext) POST(path string, body any, headers map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"
	return tc.do(http.MethodPost, path, bytes.NewReader(data), headers)
}

// formFile is one file part of a multipart request.
type formFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// POSTMultipart sends fields and files as multipart/form-data
func (tc *TestContext) POSTMultipart(path string, fields map[string]string, files []formFile, headers map[string]string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		h.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := part.Write(f.Data); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = mw.FormDataContentType()
	return tc.do(http.MethodPost, path, &buf, headers)
}

// GET makes a GET request and stores the response
func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) do(method, path string, body io.Reader, headers map[string]string) error {
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastRequestID = resp.Header.Get("X-Request-ID")
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// decode unmarshals the last response into v.
func (tc *TestContext) decode(v any) error {
	if err := json.Unmarshal(tc.LastResponseBody, v); err != nil {
		return fmt.Errorf("failed to unmarshal response %s: %w", tc.LastResponseBody, err)
	}
	return nil
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}
