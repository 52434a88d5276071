// Package validate implements the request validator/normalizer: it parses
// and bounds-checks the HTTP query surface (§4.5) and resolves the
// requested file path safely against the configured root directory.
package validate

import (
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"logserv/internal/apperr"
	"logserv/internal/search"
	"logserv/internal/token"
)

const (
	// MaxPathLength is the maximum accepted length of the request path.
	MaxPathLength = 1000
	// MaxSearchTextLength is the maximum accepted length of the s
	// (substring query) parameter.
	MaxSearchTextLength = 200
	// GlobalMaxResults is the hard cap every request's n is clamped to.
	GlobalMaxResults = 100
	// DefaultMaxResults is used when n is absent.
	DefaultMaxResults = 100
)

// Request is the normalized shape of a validated inbound query: either a
// continuation (Cont set) or a fresh search (N/S set, Cont empty).
type Request struct {
	Filename string
	Cont     string // opaque continuation token, empty if this is page 1
	N        int
	S        string
	HasS     bool
}

// Validate parses r against root, applying §4.5's rules. It returns a
// *apperr.Error of Kind NotFound or Validation on any rejection.
func Validate(r *http.Request, root string) (Request, error) {
	if r.Method != http.MethodGet {
		return Request{}, apperr.NotFoundf("Not Found")
	}

	path := r.URL.Path
	if path == "" || path == "/" {
		return Request{}, apperr.NotFoundf("Not Found")
	}
	if len(path) > MaxPathLength {
		return Request{}, apperr.Validationf("path exceeds maximum length")
	}

	resolved, err := resolvePath(root, path)
	if err != nil {
		return Request{}, err
	}

	query := r.URL.Query()
	cont := query.Get("cont")
	n := query.Get("n")
	s := query.Get("s")

	if cont != "" {
		if len(cont) > token.MaxLength {
			return Request{}, apperr.Validationf("continuation token exceeds maximum length")
		}
		if n != "" || s != "" {
			return Request{}, apperr.Validationf("continuation token cannot be combined with n or s")
		}
		return Request{Filename: resolved, Cont: cont}, nil
	}

	req := Request{Filename: resolved}
	if s != "" {
		if len(s) > MaxSearchTextLength {
			return Request{}, apperr.Validationf("s exceeds maximum length")
		}
		req.S = s
		req.HasS = true
	}
	if n != "" {
		parsed, err := strconv.Atoi(n)
		if err != nil || parsed < 1 {
			return Request{}, apperr.Validationf("n must be a positive integer")
		}
		req.N = parsed
	}
	return req, nil
}

// resolvePath joins root and the URL path (leading slash included), cleans
// it, and rejects anything that escapes root — by literal prefix, and by
// following symlinks, per SPEC_FULL.md's resolution of the path-
// normalization open question.
func resolvePath(root, urlPath string) (string, error) {
	decoded, err := url.PathUnescape(urlPath)
	if err != nil {
		return "", apperr.NotFoundf("Not Found")
	}

	joined := filepath.Join(root, decoded)
	if joined != root && !strings.HasPrefix(joined, root+string(filepath.Separator)) {
		return "", apperr.NotFoundf("Not Found")
	}

	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		// A nonexistent file isn't a traversal attempt; let the caller
		// (Chunk Reader) produce the NotFound for a missing file.
		return joined, nil
	}
	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return "", apperr.NotFoundf("Not Found")
	}
	return resolved, nil
}

// NormalizeSearchOptions applies the 100-result cap and default, and
// defensively re-bounds the substring length, turning a Request (or a
// decoded continuation) into search.Options. This is "
// validateAndNormalizeSearchOptions" from spec.md §4.6 step 2.
func NormalizeSearchOptions(n int, hasS bool, s string, resumeFrom *int64) (search.Options, error) {
	if hasS && len(s) > MaxSearchTextLength {
		return search.Options{}, apperr.Validationf("s exceeds maximum length")
	}

	max := n
	if max <= 0 {
		max = DefaultMaxResults
	}
	if max > GlobalMaxResults {
		max = GlobalMaxResults
	}

	var q token.Query
	if hasS {
		text := s
		q.Text = &text
	}

	return search.Options{MaxResults: max, Query: q, ResumeFrom: resumeFrom}, nil
}
