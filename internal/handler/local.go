// Package handler wires the Validator, the Continuation Codec, and the
// Search Engine into the local (single-host) HTTP handler.
//
// Grounded on the teacher's service/read/read.go Handler, which follows the
// same extract-params -> scan -> write-response shape; reworked to produce
// the JSON {entries, cont?} envelope and continuation tokens this spec
// requires instead of a plain-text line dump.
package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"logserv/internal/aggregator/peer"
	"logserv/internal/httpx"
	"logserv/internal/logging"
	"logserv/internal/search"
	"logserv/internal/token"
	"logserv/internal/validate"
)

// Local serves the single-host /<path> endpoint against files rooted at
// Root.
type Local struct {
	Root string
}

// response is the JSON body shape from spec.md §4.6 / §6.
type response struct {
	Entries []string `json:"entries"`
	Cont    string   `json:"cont,omitempty"`
}

func (h *Local) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := r.Header.Get(peer.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx := logging.WithRequestID(r.Context(), requestID)
	log := logging.From(ctx)

	req, err := validate.Validate(r, h.Root)
	if err != nil {
		log.Warnf("validation failed for %s: %v", r.URL, err)
		httpx.WriteError(w, log, err)
		return
	}

	opts, filename, err := h.buildOptions(req)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	result, err := search.Search(filename, opts)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	body := response{Entries: result.Entries}
	if result.ResumeFrom != nil {
		cont, err := token.EncodeLocal(token.Local{
			ResumeFrom: *result.ResumeFrom,
			MaxResults: opts.MaxResults,
			Query:      opts.Query,
		})
		if err != nil {
			httpx.WriteError(w, log, err)
			return
		}
		body.Cont = cont
	}

	httpx.WriteJSON(w, http.StatusOK, body)
	log.Infof("path=%s n=%d matched=%d duration_ms=%d", filename, opts.MaxResults, len(result.Entries), time.Since(start).Milliseconds())
}

// buildOptions resolves a validated Request into search.Options, decoding
// the continuation token when present (step 1-2 of spec.md §4.6).
func (h *Local) buildOptions(req validate.Request) (search.Options, string, error) {
	if req.Cont != "" {
		local, err := token.DecodeLocal(req.Cont)
		if err != nil {
			return search.Options{}, "", err
		}
		resumeFrom := local.ResumeFrom
		opts, err := validate.NormalizeSearchOptions(local.MaxResults, local.Query.Text != nil, queryText(local.Query), &resumeFrom)
		if err != nil {
			return search.Options{}, "", err
		}
		return opts, req.Filename, nil
	}

	opts, err := validate.NormalizeSearchOptions(req.N, req.HasS, req.S, nil)
	if err != nil {
		return search.Options{}, "", err
	}
	return opts, req.Filename, nil
}

func queryText(q token.Query) string {
	if q.Text == nil {
		return ""
	}
	return *q.Text
}
