package telegram

import "fmt"

// maxErrorBody caps how much of a failed metadata response is kept.
const maxErrorBody = 64 * 1024

// RemoteServiceError reports a metadata call that did not answer 200 OK.
// StatusCode is 0 when no response was received at all.
type RemoteServiceError struct {
	StatusCode int
	Status     string
	Body       []byte
	Err        error
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("telegram file info request failed: %v", e.Err)
	}
	body := e.Body
	if len(body) > 512 {
		body = body[:512]
	}
	return fmt.Sprintf("bad response from telegram service: %s: %s", e.Status, body)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// ResponseDecodeError reports a metadata body that is not valid JSON.
type ResponseDecodeError struct {
	Err error
}

func (e *ResponseDecodeError) Error() string {
	return fmt.Sprintf("failed to process JSON response: %v", e.Err)
}

func (e *ResponseDecodeError) Unwrap() error { return e.Err }

// InvalidURLError reports a templated URL that is not an absolute URL.
// URL has the bot token redacted.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// TransferError reports a download that failed before all bytes arrived.
// URL has the bot token redacted.
type TransferError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: unexpected status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
