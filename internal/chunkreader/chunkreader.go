// Package chunkreader opens a file read-only and yields fixed-size byte
// windows from end toward start. It is the innermost component of the
// reverse-scan pipeline: internal/scanner consumes its Chunks to
// reassemble lines.
//
// Grounded on the teacher's service/read/chunkReader.go, generalized to
// take an explicit upper bound ("end") instead of always starting at the
// current file size, and to surface typed errors instead of bare io.EOF.
package chunkreader

import (
	"io"
	"os"

	"logserv/internal/apperr"
)

// ChunkSize is the maximum number of bytes in a single Chunk.
const ChunkSize = 64 * 1024

// Chunk is a contiguous slice of the underlying file together with the
// file offset of its first byte.
type Chunk struct {
	Offset int64
	Bytes  []byte
}

// Reader yields Chunks in decreasing-offset order, from an upper bound
// down to offset 0, inclusive.
type Reader struct {
	file    *os.File
	nextEnd int64 // exclusive upper bound of the next chunk to read
	done    bool
}

// Open opens path read-only and prepares a Reader bounded above by end (the
// file's current size if end < 0). The caller must call Close when done, on
// every exit path.
//
// When the byte just below end is a newline, that single newline is excluded
// from every window: at the file's end it terminates the file's last line,
// and at a resume offset (a line's first byte) it terminates the preceding
// line, so in neither case does it introduce an additional empty line (see
// scanner's "trailing newline" rule).
func Open(path string, end int64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFoundf("file not found: %s", path)
		}
		return nil, apperr.Wrap(err, "opening file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperr.Wrap(err, "stat file")
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, apperr.NotFoundf("not a regular file: %s", path)
	}

	size := info.Size()
	defaulted := end < 0
	if defaulted {
		end = size
	}
	if end > size {
		f.Close()
		return nil, apperr.Validationf("resume offset %d exceeds file size %d", end, size)
	}

	if end > 0 {
		var last [1]byte
		if _, err := f.ReadAt(last[:], end-1); err != nil && err != io.EOF {
			f.Close()
			return nil, apperr.Wrap(err, "reading file")
		}
		if last[0] == '\n' {
			end--
		}
	}

	return &Reader{file: f, nextEnd: end}, nil
}

// Close releases the underlying file handle. Safe to call multiple times.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Next returns the next chunk in decreasing-offset order, or io.EOF once
// the chunk starting at offset 0 has already been returned.
func (r *Reader) Next() (Chunk, error) {
	if r.done {
		return Chunk{}, io.EOF
	}

	end := r.nextEnd
	start := end - ChunkSize
	if start < 0 {
		start = 0
	}
	length := int(end - start)

	buf := make([]byte, length)
	if length > 0 {
		if err := readFullAt(r.file, buf, start); err != nil {
			return Chunk{}, err
		}
	}

	r.nextEnd = start
	if start == 0 {
		r.done = true
	}
	return Chunk{Offset: start, Bytes: buf}, nil
}

// readFullAt reads exactly len(buf) bytes at offset off, retrying short
// reads, and reports UnexpectedEOF if the file yields fewer bytes than
// requested (the file is not supposed to shrink mid-scan).
func readFullAt(f *os.File, buf []byte, off int64) error {
	read := 0
	for read < len(buf) {
		n, err := f.ReadAt(buf[read:], off+int64(read))
		read += n
		if err != nil {
			if err == io.EOF {
				if read == len(buf) {
					return nil
				}
				return apperr.Wrap(io.ErrUnexpectedEOF, "file shrank during scan")
			}
			return apperr.Wrap(err, "reading file")
		}
	}
	return nil
}
