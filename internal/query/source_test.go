package query

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func readAll(t *testing.T, src *Source, name string) ([]string, error) {
	t.Helper()
	s, err := src.Open(name)
	if err != nil {
		return nil, err
	}
	return Collect(s)
}

func TestSource_Lines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"trailing newline", "a 1\nb 2\na 3\n", []string{"a 1", "b 2", "a 3"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"lone cr kept", "a\rb\n", []string{"a\rb"}},
		{"blank lines", "\n\nx\n", []string{"", "", "x"}},
		{"bom skipped", "\uFEFFhead\nbody\n", []string{"head", "body"}},
		{"empty", "", []string{}},
		{"utf8", "héllo wörld\n", []string{"héllo wörld"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "f.txt", tt.content)

			got, err := readAll(t, NewSource(dir, 0), "f.txt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSource_Subdirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "logs"), 0o755))
	writeFile(t, dir, "logs/app.log", "x\n")

	got, err := readAll(t, NewSource(dir, 0), "logs/app.log")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)
}

func TestSource_NotFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writeFile(t, dir, "ok.txt", "x\n")
	src := NewSource(dir, 0)

	for _, name := range []string{
		"missing.txt",
		"sub",
		"../ok.txt",
		"sub/../../ok.txt",
		"/etc/passwd",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := src.Open(name)
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSource_MissingDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nope")
	_, err := NewSource(dir, 0).Open("f.txt")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, err.Error(), dir)
}

func TestSource_UnreadableHidesPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	_, err := NewSource(dir, 0).Open("sub")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, err.Error(), dir)
}

func TestSource_EmptyName(t *testing.T) {
	_, err := NewSource(t.TempDir(), 0).Open("")
	require.ErrorIs(t, err, ErrMissingFile)
}

func TestSource_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bin.dat", "ok\n\xff\xfe\n")

	got, err := readAll(t, NewSource(dir, 0), "bin.dat")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "line 2")
	assert.Nil(t, got)
}

func TestSource_LineTooLong(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "long.txt", "short\n"+strings.Repeat("x", 100)+"\n")

	_, err := readAll(t, NewSource(dir, 64), "long.txt")
	require.ErrorIs(t, err, ErrNotFound)

	// A line of exactly the limit is fine, terminator excluded.
	writeFile(t, dir, "edge.txt", strings.Repeat("y", 64)+"\r\n")
	got, err := readAll(t, NewSource(dir, 64), "edge.txt")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSource_LongLineAcrossBuffer(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("z", readBufferSize*2+10)
	writeFile(t, dir, "big.txt", long+"\nend\n")

	got, err := readAll(t, NewSource(dir, 0), "big.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{long, "end"}, got)
}

func TestSource_StreamIsSinglePass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.txt", "a\nb\n")

	s, err := NewSource(dir, 0).Open("f.txt")
	require.NoError(t, err)

	first, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, first)

	_, err = Collect(s)
	require.ErrorIs(t, err, errStreamReused)
}

func TestSource_EarlyStop(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.txt", "a\nb\nc\n")

	s, err := NewSource(dir, 0).Open("f.txt")
	require.NoError(t, err)

	var got []string
	for line, err := range s {
		require.NoError(t, err)
		got = append(got, line)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestNewSource_Defaults(t *testing.T) {
	src := NewSource("data", -1)
	assert.Equal(t, "data", src.Dir())
	assert.Equal(t, DefaultMaxLineBytes, src.maxLineBytes)
}
