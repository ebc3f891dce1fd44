// Package relay provides an HTTP RelayClient implementation for ciphera.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"ciphera/internal/domain"
	"ciphera/internal/envelope"
)

// HTTP is a RelayClient over HTTP.
type HTTP struct {
	Base   string
	client *http.Client
}

// NewHTTP constructs a new HTTP relay client. If client is nil,
// http.DefaultClient is used.
func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{Base: base, client: client}
}

// RegisterPreKeyBundle publishes a bundle to POST /register.
func (c *HTTP) RegisterPreKeyBundle(ctx context.Context, bundle domain.PreKeyBundle) error {
	return c.post(ctx, "/register", bundle, nil)
}

// FetchPreKeyBundle retrieves the bundle for username via GET /prekey/{username}.
func (c *HTTP) FetchPreKeyBundle(ctx context.Context, username domain.Username) (domain.PreKeyBundle, error) {
	var out domain.PreKeyBundle
	if err := c.getJSON(ctx, "/prekey/"+url.PathEscape(username.String()), &out); err != nil {
		return domain.PreKeyBundle{}, err
	}
	return out, nil
}

// SendMessage wire-encodes env and posts the raw bytes to
// POST /msg/{recipient}. The recipient is carried in the URL, not the wire
// encoding, since the encoding only names the sender (see internal/envelope).
func (c *HTTP) SendMessage(ctx context.Context, env domain.Envelope) error {
	body, err := envelope.Marshal(env)
	if err != nil {
		return fmt.Errorf("relay: marshal envelope: %w", err)
	}
	return c.postBytes(ctx, "/msg/"+url.PathEscape(env.Recipient.String()), body)
}

// FetchMessages GETs up to limit wire-encoded envelopes from
// /msg/{user}?limit=N as a JSON array of frames, one per envelope, and decodes
// each with envelope.Unmarshal. Recipient is filled in from username since
// the wire encoding does not carry it.
func (c *HTTP) FetchMessages(ctx context.Context, username domain.Username, limit int) ([]domain.Envelope, error) {
	path := "/msg/" + url.PathEscape(username.String())
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var frames [][]byte
	if err := c.getJSON(ctx, path, &frames); err != nil {
		return nil, err
	}
	envelopes := make([]domain.Envelope, 0, len(frames))
	for _, frame := range frames {
		env, err := envelope.Unmarshal(frame)
		if err != nil {
			return nil, fmt.Errorf("relay: unmarshal envelope: %w", err)
		}
		env.Recipient = username
		envelopes = append(envelopes, env)
	}
	return envelopes, nil
}

// AckMessages sends an acknowledgment to POST /msg/{user}/ack with {count}.
func (c *HTTP) AckMessages(ctx context.Context, username domain.Username, count int) error {
	payload := struct {
		Count int `json:"count"`
	}{Count: count}
	return c.post(ctx, "/msg/"+url.PathEscape(username.String())+"/ack", payload, nil)
}

// FetchAccountCanary retrieves the relay's current canary value for
// username via GET /account/{user}/canary, so callers can detect a
// server-side identity reset before trusting the relay with a send.
func (c *HTTP) FetchAccountCanary(ctx context.Context, username domain.Username) (string, error) {
	var out struct {
		Canary string `json:"canary"`
	}
	if err := c.getJSON(ctx, "/account/"+url.PathEscape(username.String())+"/canary", &out); err != nil {
		return "", err
	}
	return out.Canary, nil
}

// post is a helper for JSON-encoding a POST to path.
func (c *HTTP) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return fmt.Errorf("relay: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay: post %s: %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// postBytes posts a raw binary body with no response expected.
func (c *HTTP) postBytes(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay: post %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay: post %s: %s", path, resp.Status)
	}
	return nil
}

// getJSON performs a GET and JSON-decodes the response into out.
func (c *HTTP) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay: get %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Compile-time assertion that HTTP implements domain.RelayClient.
var _ domain.RelayClient = (*HTTP)(nil)
