package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Form is a multipart payload for UploadForm.
type Form struct {
	Fields map[string]string
	Files  []FormFile
}

// FormFile is a single file part.
type FormFile struct {
	// Field is the multipart field name, e.g. "image".
	Field string
	// Name is the filename reported to the backend.
	Name string
	// Content is the file data.
	Content io.Reader
}

// UploadForm posts a multipart form with the bearer token attached manually;
// this path bypasses the refresh-and-retry machinery entirely. The extended
// upload timeout applies. Contract violations (no token store, method other
// than POST or PUT) fail synchronously before any network I/O.
func (c *Client) UploadForm(ctx context.Context, method, path string, form Form) (json.RawMessage, error) {
	if c.tokens == nil {
		return nil, ErrNoTokenStore
	}
	if method != http.MethodPost && method != http.MethodPut {
		return nil, fmt.Errorf("%w: got %s", ErrUploadMethod, method)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for field, value := range form.Fields {
		if err := writer.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %q: %w", field, err)
		}
	}

	for _, file := range form.Files {
		part, err := writer.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file %q: %w", file.Field, err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, fmt.Errorf("failed to copy form file %q: %w", file.Field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.UploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Multipart sets its own content type; other defaults still apply.
	for key, value := range c.cfg.DefaultHeaders {
		if key == "Content-Type" {
			continue
		}
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if token, ok := c.currentToken(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, netError(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, netError(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseErrorResponse(resp.StatusCode, respBody)
	}

	return respBody, nil
}
