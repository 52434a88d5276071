// Package token implements the continuation-token codec: opaque,
// base64-of-JSON strings that let a client resume a previously started
// scan, either against a single host (Local) or against a fan-out of
// peers (Aggregator).
//
// The wire layout is the stable contract (spec.md §4.4); callers must treat
// decoded tokens as read-only except for the fields the spec says survive a
// round trip (maxResults, query).
package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"logserv/internal/apperr"
)

// MaxLength is the maximum on-wire (base64) length of a continuation
// token. Oversized tokens are rejected before any attempt to decode them.
const MaxLength = 200

// Query is the single dispatch point for the (currently one-variant)
// tagged query shape described in spec.md §9: a substring match today, with
// room for future variants (regex, fielded) added as additional pointer
// fields and one more case in Match.
type Query struct {
	Text *string `json:"text,omitempty"`
}

// Match reports whether line satisfies the query. An absent query (all
// fields nil) matches everything. This is the single dispatch point the
// spec's §9 design note anticipates growing a sibling case for (e.g. a
// future regex variant would add a field above and a case here).
func (q Query) Match(line string) bool {
	switch {
	case q.Text != nil:
		return strings.Contains(line, *q.Text)
	default:
		return true
	}
}

// Local is the decoded contents of a single-host continuation token:
// where to resume, how many results to return, and the query to keep
// applying so that subsequent pages are homogeneous with page 1.
type Local struct {
	ResumeFrom int64
	MaxResults int
	Query      Query
}

// EncodeLocal mints a token carrying l's fields, wire-formatted as the JSON
// array [resumeFrom, maxResults, query].
func EncodeLocal(l Local) (string, error) {
	var queryJSON interface{}
	if l.Query.Text != nil {
		queryJSON = l.Query
	}
	payload := []interface{}{l.ResumeFrom, l.MaxResults, queryJSON}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.Wrap(err, "encoding continuation token")
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeLocal decodes a local continuation token, rejecting anything that
// is not a 3-element array of [int, int, null|object] as InvalidToken.
func DecodeLocal(tok string) (Local, error) {
	raw, err := decodeWire(tok)
	if err != nil {
		return Local{}, err
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || len(elems) != 3 {
		return Local{}, invalidToken("malformed continuation token")
	}

	var resumeFrom, maxResults int64
	if err := json.Unmarshal(elems[0], &resumeFrom); err != nil {
		return Local{}, invalidToken("malformed continuation token")
	}
	if err := json.Unmarshal(elems[1], &maxResults); err != nil {
		return Local{}, invalidToken("malformed continuation token")
	}

	var q Query
	trimmed := strings.TrimSpace(string(elems[2]))
	if trimmed != "null" {
		if err := json.Unmarshal(elems[2], &q); err != nil {
			return Local{}, invalidToken("malformed continuation token")
		}
	}

	return Local{ResumeFrom: resumeFrom, MaxResults: int(maxResults), Query: q}, nil
}

// Secondary is one peer's continuation inside an aggregator token.
type Secondary struct {
	Host string `json:"host"`
	Cont string `json:"cont"`
}

// EncodeAggregator mints a multiplexed token naming each peer that still has
// results to paginate.
func EncodeAggregator(secondaries []Secondary) (string, error) {
	raw, err := json.Marshal(secondaries)
	if err != nil {
		return "", apperr.Wrap(err, "encoding aggregator token")
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeAggregator decodes a multiplexed token, rejecting any element that
// is not an object with both string-typed host and cont fields.
func DecodeAggregator(tok string) ([]Secondary, error) {
	raw, err := decodeWire(tok)
	if err != nil {
		return nil, err
	}

	var generic []map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, invalidToken("malformed continuation token")
	}

	out := make([]Secondary, 0, len(generic))
	for _, elem := range generic {
		host, hostOK := elem["host"].(string)
		cont, contOK := elem["cont"].(string)
		if !hostOK || !contOK {
			return nil, invalidToken("malformed continuation token")
		}
		out = append(out, Secondary{Host: host, Cont: cont})
	}
	return out, nil
}

func decodeWire(tok string) ([]byte, error) {
	if len(tok) > MaxLength {
		return nil, invalidToken("continuation token exceeds maximum length")
	}
	raw, err := base64.StdEncoding.DecodeString(tok)
	if err != nil {
		return nil, invalidToken("malformed continuation token")
	}
	return raw, nil
}

func invalidToken(msg string) *apperr.Error {
	return apperr.Validationf("%s", msg)
}
