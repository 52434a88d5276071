// Package scanner implements the reverse line scanner: given a file opened
// through internal/chunkreader, it produces a finite, non-restartable
// sequence of Lines in descending-offset order.
//
// Grounded on the teacher's service/read/reverser.go (same three-activity
// shape: read a chunk backwards, split it into lines, reverse within the
// chunk) but reworked to track true byte offsets across chunk boundaries
// and to apply the long-line truncation cap, neither of which the
// teacher's bufio.Scanner-per-chunk approach needed to do.
package scanner

import (
	"io"

	"logserv/internal/chunkreader"
)

// MaxLineLength is the maximum number of bytes kept for a single emitted
// Line; longer lines are truncated to their first MaxLineLength bytes
// (the tail of the line is dropped, not the head), while the reported
// Offset always points at the line's true first byte.
const MaxLineLength = 2048

// Line is a complete log entry, exclusive of its trailing newline.
type Line struct {
	Offset int64
	Bytes  []byte
}

// Scanner pulls Chunks from a chunkreader.Reader and reassembles them into
// Lines. Not safe for concurrent use; owned by a single request.
type Scanner struct {
	reader *chunkreader.Reader

	curChunk  chunkreader.Chunk
	curEnd    int  // exclusive upper bound of the unscanned window within curChunk.Bytes
	haveChunk bool

	partial   []byte // prefix of a line not yet terminated, oldest bytes first
	partialAt int64  // file offset partial's first byte would have, once known

	exhausted bool // true once the chunk starting at offset 0 has been consumed
	finished  bool // true once any final partial has been emitted
}

// Open opens path for reverse scanning, starting at startingOffset (or file
// end if startingOffset < 0). The caller must call Close on every exit
// path.
func Open(path string, startingOffset int64) (*Scanner, error) {
	r, err := chunkreader.Open(path, startingOffset)
	if err != nil {
		return nil, err
	}
	return &Scanner{reader: r}, nil
}

// Close releases the underlying file handle.
func (s *Scanner) Close() error {
	return s.reader.Close()
}

// Next returns the next Line in descending-offset order, or io.EOF when the
// scan is exhausted.
func (s *Scanner) Next() (Line, error) {
	for {
		if s.haveChunk {
			if line, ok := s.scanCurrentChunk(); ok {
				return line, nil
			}
			continue
		}

		if s.exhausted {
			if s.finished {
				return Line{}, io.EOF
			}
			s.finished = true
			if s.partial != nil {
				line := Line{Offset: s.partialAt, Bytes: s.partial}
				s.partial = nil
				return line, nil
			}
			return Line{}, io.EOF
		}

		chunk, err := s.reader.Next()
		if err != nil {
			return Line{}, err
		}
		s.curChunk = chunk
		s.curEnd = len(chunk.Bytes)
		s.haveChunk = true
	}
}

// scanCurrentChunk searches the unscanned window of the current chunk for
// the newest remaining newline. If found, it emits the line it terminates
// and shrinks the window. If not, the whole window is a line prefix that
// continues into an older chunk: it is folded into partial and the chunk
// is marked consumed (ok=false signals the caller to fetch the next one).
func (s *Scanner) scanCurrentChunk() (line Line, ok bool) {
	b := s.curChunk.Bytes
	for i := s.curEnd - 1; i >= 0; i-- {
		if b[i] != '\n' {
			continue
		}
		tail := b[i+1 : s.curEnd]
		lineOffset := s.curChunk.Offset + int64(i) + 1
		s.curEnd = i
		return s.assemble(tail, lineOffset), true
	}

	prefix := b[0:s.curEnd]
	s.prependPartial(prefix, s.curChunk.Offset)
	s.haveChunk = false
	if s.curChunk.Offset == 0 {
		s.exhausted = true
	}
	return Line{}, false
}

// assemble combines a newly-found tail with any previously accumulated
// partial (the continuation of the same line found in younger chunks),
// applies the long-line cap, and clears partial.
func (s *Scanner) assemble(tail []byte, lineOffset int64) Line {
	full := append([]byte{}, tail...)
	if s.partial != nil {
		full = append(full, s.partial...)
	}
	if len(full) > MaxLineLength {
		full = full[:MaxLineLength]
	}
	s.partial = nil
	return Line{Offset: lineOffset, Bytes: full}
}

// prependPartial accumulates prefix bytes found in an older chunk onto the
// front of partial, re-deriving the front-truncated MaxLineLength window on
// every call rather than freezing it at first overflow: partial's front
// always represents the earliest file offset discovered so far (chunkOffset
// of this call), which keeps shifting backward as still-older chunks are
// read, so only the bytes beyond MaxLineLength from that current front are
// ever safe to discard — they can never fall inside the line's true first
// MaxLineLength bytes once the real start is eventually found.
func (s *Scanner) prependPartial(prefix []byte, chunkOffset int64) {
	if len(prefix) == 0 && s.partial == nil {
		return
	}
	s.partialAt = chunkOffset
	if s.partial == nil {
		s.partial = append([]byte{}, prefix...)
	} else {
		s.partial = append(append([]byte{}, prefix...), s.partial...)
	}
	if len(s.partial) > MaxLineLength {
		s.partial = s.partial[:MaxLineLength]
	}
}
