// Package peer is the HTTP client side of the Aggregator's fan-out: one
// GET per peer, either the initial query or a peer-specific continuation,
// decoded into the same {entries, cont?} shape the Local Handler produces.
package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// RequestIDHeader carries the correlation id assigned at the HTTP boundary
// through to peer log lines, so operators tailing multiple instances can
// correlate a fan-out across hosts. Additive: peers that ignore it behave
// identically.
const RequestIDHeader = "X-Logserv-Request-Id"

// Kind classifies an Outcome so the Aggregator can pick the right messages[]
// wording without re-parsing errors.
type Kind int

const (
	// OK is a successful 200 response.
	OK Kind = iota
	// PeerError is a non-200 response carrying a structured {error} body;
	// its message is used verbatim.
	PeerError
	// Transport covers network failure, timeout, or any other exception
	// talking to or decoding from the peer.
	Transport
)

// Outcome is one peer's result.
type Outcome struct {
	Host    string
	Kind    Kind
	Entries []string
	Cont    string
	Message string // set when Kind == PeerError
	Cause   error  // set when Kind == Transport
}

type responseBody struct {
	Entries []string `json:"entries"`
	Cont    string   `json:"cont,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Client issues one GET to a peer and decodes its response. Inbound is the
// scheme/port template URL (peers are reached by rewriting only Host, per
// SPEC_FULL.md §4.7's peer URL construction note).
type Client struct {
	HTTP      *http.Client
	Inbound   *url.URL
	RequestID string
}

// Fetch builds "<scheme>://<host><path>?<rawQuery>" from c.Inbound with
// host replaced by host, issues the GET, and classifies the result. A
// server-side inbound URL carries no scheme; "http" is used then.
func (c Client) Fetch(ctx context.Context, host, path, rawQuery string) Outcome {
	u := *c.Inbound
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	u.Host = host
	u.Path = path
	u.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Outcome{Host: host, Kind: Transport, Cause: fmt.Errorf("building request: %w", err)}
	}
	if c.RequestID != "" {
		req.Header.Set(RequestIDHeader, c.RequestID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Outcome{Host: host, Kind: Transport, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Host: host, Kind: Transport, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			return Outcome{Host: host, Kind: PeerError, Message: eb.Error}
		}
		return Outcome{Host: host, Kind: Transport, Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var body responseBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return Outcome{Host: host, Kind: Transport, Cause: fmt.Errorf("decoding peer response: %w", err)}
	}
	return Outcome{Host: host, Kind: OK, Entries: body.Entries, Cont: body.Cont}
}
