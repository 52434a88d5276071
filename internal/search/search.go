// Package search implements the search engine: it pulls lines from the
// reverse scanner, applies the substring filter, stops at the result
// limit, and reports the earliest offset touched so the caller can
// resume.
package search

import (
	"io"
	"unicode/utf8"

	"logserv/internal/scanner"
	"logserv/internal/token"
)

// Options are the parameters of a single scan.
type Options struct {
	MaxResults int
	Query      token.Query
	ResumeFrom *int64 // nil means "start at file end"
}

// Result is the output of one local scan.
type Result struct {
	Entries    []string
	ResumeFrom *int64 // nil means the scan reached the start of the file
}

// Search runs options against filename, using the reverse scanner and
// lossy UTF-8 decoding (invalid byte sequences become the replacement
// character; a malformed file never fails the request).
func Search(filename string, options Options) (Result, error) {
	start := int64(-1)
	if options.ResumeFrom != nil {
		start = *options.ResumeFrom
	}

	s, err := scanner.Open(filename, start)
	if err != nil {
		return Result{}, err
	}
	defer s.Close()

	var entries []string
	var earliestOffset int64
	sawAny := false

	for len(entries) < options.MaxResults {
		line, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, err
		}

		sawAny = true
		earliestOffset = line.Offset

		if len(line.Bytes) == 0 {
			continue
		}
		decoded := decodeLossy(line.Bytes)
		if !options.Query.Match(decoded) {
			continue
		}
		entries = append(entries, decoded)
	}

	result := Result{Entries: entries}
	if sawAny && earliestOffset != 0 {
		resumeFrom := earliestOffset
		result.ResumeFrom = &resumeFrom
	}
	return result, nil
}

// decodeLossy decodes b as UTF-8, substituting U+FFFD for invalid byte
// sequences rather than failing.
func decodeLossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var out []rune
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		out = append(out, r)
		b = b[size:]
	}
	return string(out)
}
