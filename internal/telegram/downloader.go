package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// ErrNotAbsoluteURL is wrapped by InvalidURLError when the expanded
// download URL lacks a scheme or host.
var ErrNotAbsoluteURL = errors.New("url must be absolute")

// Downloader fetches file bytes from the Telegram file storage endpoint.
// The whole payload is buffered in memory; there is no size limit.
type Downloader struct {
	client      *http.Client
	token       string
	uriTemplate string
	logger      *zap.Logger
}

func NewDownloader(client *http.Client, token, uriTemplate string, logger *zap.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		client:      client,
		token:       token,
		uriTemplate: uriTemplate,
		logger:      logger,
	}
}

// Download expands the storage template with filePath and reads the
// response to completion.
func (d *Downloader) Download(ctx context.Context, filePath string) ([]byte, error) {
	rawURL := expand(d.uriTemplate, map[string]string{
		"token":    d.token,
		"filePath": filePath,
	})
	safeURL := redact(rawURL, d.token)

	if err := checkAbsolute(rawURL); err != nil {
		return nil, &InvalidURLError{URL: safeURL, Err: scrub(err, d.token)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &InvalidURLError{URL: safeURL, Err: scrub(err, d.token)}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &TransferError{URL: safeURL, Err: scrub(err, d.token)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransferError{
			URL:        safeURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server answered %s", resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransferError{URL: safeURL, Err: err}
	}

	d.logger.Debug("downloaded telegram file",
		zap.String("file_path", filePath),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

func checkAbsolute(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return ErrNotAbsoluteURL
	}
	return nil
}
