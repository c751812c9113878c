package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// URL downloads one resource with GET on every Open.
type URL struct {
	c   *Client
	url string
}

// NewURL binds url to c; a nil c gets a default client.
func NewURL(c *Client, url string) *URL {
	if c == nil {
		c = NewClient(Config{})
	}
	return &URL{c: c, url: url}
}

// Open returns the response body. Any status other than 200 is an error.
func (u *URL) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := u.c.Get(ctx, u.url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpds: GET %s: %w", u.url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: %s", u.url, resp.Status)
	}
	return &body{ReadCloser: resp.Body, size: resp.ContentLength}, nil
}

// body reports Content-Length, or -1 when the server did not send one.
type body struct {
	io.ReadCloser
	size int64
}

func (b *body) Size() int64 { return b.size }
