package query

// source.go opens named files under the data directory and streams their
// lines. Every Open gets its own handle, so concurrent queries against the
// same file never share a cursor.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// DefaultMaxLineBytes bounds a single line when no limit is configured.
const DefaultMaxLineBytes = 1 << 20

const readBufferSize = 64 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// errLineTooLong is wrapped in ErrNotFound: an over-long line means the file
// is not the line-oriented text this service reads.
var errLineTooLong = errors.New("line exceeds maximum length")

// Source resolves file identifiers against a fixed data directory.
type Source struct {
	dir          string
	maxLineBytes int
}

// NewSource returns a Source rooted at dir. maxLineBytes <= 0 selects
// DefaultMaxLineBytes.
func NewSource(dir string, maxLineBytes int) *Source {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &Source{dir: dir, maxLineBytes: maxLineBytes}
}

// Dir returns the data directory.
func (s *Source) Dir() string {
	return s.dir
}

// Open resolves name relative to the data directory and returns a stream of
// its lines with terminators removed.
//
// Names that are absolute or climb out of the directory, missing files and
// directories all fail with ErrNotFound before any line is produced. Invalid
// UTF-8 is reported as ErrNotFound while the stream is read.
func (s *Source) Open(name string) (Stream, error) {
	if name == "" {
		return nil, ErrMissingFile
	}
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("%w: %q is outside the data directory", ErrNotFound, name)
	}

	root, err := os.OpenRoot(s.dir)
	if err != nil {
		// err names the server-side path, which must not reach clients.
		return nil, fmt.Errorf("%w: data directory is unavailable", ErrNotFound)
	}
	// Files opened through a Root stay valid after the Root is closed.
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		return nil, notFound(name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, notFound(name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %q is a directory", ErrNotFound, name)
	}

	return s.lines(f, name), nil
}

func notFound(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return fmt.Errorf("%w: %q is not readable", ErrNotFound, name)
}

// lines streams f line by line and closes it when iteration ends, whether the
// file was exhausted, an error was yielded, or the consumer stopped early.
func (s *Source) lines(f *os.File, name string) Stream {
	used := false
	return func(yield func(string, error) bool) {
		if used {
			yield("", errStreamReused)
			return
		}
		used = true
		defer f.Close()

		r := bufio.NewReaderSize(f, readBufferSize)
		skipBOM(r)

		for lineNo := 1; ; lineNo++ {
			line, err := readLine(r, s.maxLineBytes)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("%w: %q line %d: %v", ErrNotFound, name, lineNo, err))
				return
			}
			if !utf8.Valid(line) {
				yield("", fmt.Errorf("%w: %q line %d: malformed file: invalid UTF-8", ErrNotFound, name, lineNo))
				return
			}
			if !yield(string(line), nil) {
				return
			}
		}
	}
}

// skipBOM drops a leading UTF-8 byte order mark, as written by many Windows
// editors.
func skipBOM(r *bufio.Reader) {
	if head, err := r.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		r.Discard(len(utf8BOM))
	}
}

// readLine returns the next line without its "\n" or "\r\n" terminator.
// A final line without a terminator is returned as is; io.EOF is returned
// only once nothing is left.
func readLine(r *bufio.Reader, maxBytes int) ([]byte, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > maxBytes+2 {
			return nil, errLineTooLong
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && len(buf) == 0 {
			return nil, io.EOF
		}
		if err != nil && err != io.EOF {
			return nil, err
		}
		line := trimEOL(buf)
		if len(line) > maxBytes {
			return nil, errLineTooLong
		}
		return line, nil
	}
}

// trimEOL strips "\n" or "\r\n". A lone "\r" is part of the line.
func trimEOL(b []byte) []byte {
	if !bytes.HasSuffix(b, []byte{'\n'}) {
		return b
	}
	b = b[:len(b)-1]
	return bytes.TrimSuffix(b, []byte{'\r'})
}
