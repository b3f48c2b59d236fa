package query

import (
	"context"
	"errors"
	"iter"
)

// Stream is a lazy, single-pass sequence of lines. A stage that fails yields
// ("", err) once and then stops; values yielded alongside a non-nil error are
// meaningless.
type Stream = iter.Seq2[string, error]

var errStreamReused = errors.New("stream already consumed")

// FromSlice returns a stream over lines. Unlike a file stream it can be
// ranged over more than once.
func FromSlice(lines []string) Stream {
	return func(yield func(string, error) bool) {
		for _, line := range lines {
			if !yield(line, nil) {
				return
			}
		}
	}
}

// WithContext stops s once ctx is done, yielding ctx.Err() in place of the
// next line.
func WithContext(ctx context.Context, s Stream) Stream {
	return func(yield func(string, error) bool) {
		for line, err := range s {
			if err != nil {
				yield("", err)
				return
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield("", ctxErr)
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// Collect drains s into a slice. On error it returns nil and the first error,
// so a failed query never produces partial output. An empty stream gives an
// empty, non-nil slice.
func Collect(s Stream) ([]string, error) {
	out := make([]string, 0)
	for line, err := range s {
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}
