package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// getFileResponse is the part of the Bot API getFile answer we read.
type getFileResponse struct {
	Result struct {
		FilePath string `json:"file_path"`
	} `json:"result"`
}

// FileResolver turns a Telegram file id into the relative storage path
// returned by the getFile endpoint.
type FileResolver struct {
	client      *http.Client
	token       string
	uriTemplate string
	logger      *zap.Logger
}

func NewFileResolver(client *http.Client, token, uriTemplate string, logger *zap.Logger) *FileResolver {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileResolver{
		client:      client,
		token:       token,
		uriTemplate: uriTemplate,
		logger:      logger,
	}
}

// Resolve calls the file info endpoint for fileID and returns
// result.file_path. A response without that field yields an empty path
// and no error; the downloader rejects the empty path later.
func (r *FileResolver) Resolve(ctx context.Context, fileID string) (string, error) {
	rawURL := fileInfoURL(r.uriTemplate, r.token, fileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &InvalidURLError{URL: redact(rawURL, r.token), Err: scrub(err, r.token)}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &RemoteServiceError{Err: scrub(err, r.token)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		r.logger.Warn("telegram file info rejected",
			zap.String("file_id", fileID),
			zap.Int("status", resp.StatusCode),
		)
		return "", &RemoteServiceError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       body,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ResponseDecodeError{Err: err}
	}

	var payload getFileResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &ResponseDecodeError{Err: err}
	}

	if payload.Result.FilePath == "" {
		r.logger.Warn("telegram file info has no file_path", zap.String("file_id", fileID))
	}
	r.logger.Debug("resolved telegram file",
		zap.String("file_id", fileID),
		zap.String("file_path", payload.Result.FilePath),
	)
	return payload.Result.FilePath, nil
}

// fileInfoURL expands the file info template. {fileId} is path-escaped
// before the query separator and query-escaped after it.
func fileInfoURL(tmpl, token, fileID string) string {
	path, query, hasQuery := strings.Cut(tmpl, "?")
	rawURL := expand(path, map[string]string{
		"token":  token,
		"fileId": url.PathEscape(fileID),
	})
	if hasQuery {
		rawURL += "?" + expand(query, map[string]string{
			"token":  token,
			"fileId": url.QueryEscape(fileID),
		})
	}
	return rawURL
}

// scrub removes the token from the URL carried by net/http errors while
// keeping the error chain intact.
func scrub(err error, token string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redact(urlErr.URL, token)
	}
	return err
}
