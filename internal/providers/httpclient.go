package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// HTTPClient is a small JSON-over-HTTP helper shared by all provider
// clients. Non-2xx responses and transport errors are retried with
// exponential backoff.
type HTTPClient struct {
	client  *http.Client
	retries int
	backoff time.Duration
}

func NewHTTPClient(timeout time.Duration, retries int) *HTTPClient {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		backoff: 300 * time.Millisecond,
	}
}

// DoJSON performs one JSON request and decodes the response into out.
func (c *HTTPClient) DoJSON(ctx context.Context, method, url string, headers map[string]string, body any, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	var lastErr error
	tries := c.retries + 1
	for attempt := 0; attempt < tries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if payload != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			func() {
				defer resp.Body.Close()
				if resp.StatusCode >= 200 && resp.StatusCode < 300 {
					if out == nil {
						lastErr = nil
						return
					}
					lastErr = json.NewDecoder(resp.Body).Decode(out)
					return
				}
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				lastErr = errors.New(resp.Status + ": " + string(b))
			}()
			if lastErr == nil {
				return nil
			}
		}

		if attempt < tries-1 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
