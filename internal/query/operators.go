package query

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Stage transforms one stream into another. Stages never touch their input
// until the returned stream is iterated.
type Stage func(Stream) Stream

// Filter keeps lines that contain sub. An empty sub keeps every line.
func Filter(sub string) Stage {
	return keep(func(line string) bool {
		return strings.Contains(line, sub)
	})
}

// RegexFilter keeps lines in which pattern matches anywhere. The pattern is
// compiled up front, so a bad pattern fails before any line is read.
func RegexFilter(pattern string) (Stage, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return keep(re.MatchString), nil
}

// ColumnMap replaces each line with one of its fields, splitting on single
// space characters so runs of spaces produce empty fields. A negative index
// counts from the last field. A line without that field aborts the stream
// with an *IndexError.
func ColumnMap(index string) (Stage, error) {
	k, err := parseInt(OpMap, index)
	if err != nil {
		return nil, err
	}

	return func(in Stream) Stream {
		return func(yield func(string, error) bool) {
			for line, err := range in {
				if err != nil {
					yield("", err)
					return
				}
				fields := strings.Split(line, " ")
				i := k
				if i < 0 {
					i += len(fields)
				}
				if i < 0 || i >= len(fields) {
					yield("", &IndexError{Index: k, Fields: len(fields), Line: line})
					return
				}
				if !yield(fields[i], nil) {
					return
				}
			}
		}
	}, nil
}

// Sort orders lines lexicographically by byte value. Only SortDesc selects
// descending order; any other argument sorts ascending. Sort reads its whole
// input before yielding anything.
func Sort(order string) Stage {
	return materialize(func(lines []string) []string {
		slices.Sort(lines)
		if order == SortDesc {
			slices.Reverse(lines)
		}
		return lines
	})
}

// Limit keeps the first n lines. A negative n drops the last -n lines
// instead, and dropping more lines than exist leaves none. The whole input is
// read even when n is small, so failures further down the file still abort
// the query.
func Limit(n string) (Stage, error) {
	k, err := parseInt(OpLimit, n)
	if err != nil {
		return nil, err
	}

	return materialize(func(lines []string) []string {
		end := k
		if end < 0 {
			end += len(lines)
		}
		end = max(0, min(end, len(lines)))
		return lines[:end]
	}), nil
}

// Unique reduces the input to its distinct lines. The order of the result is
// not specified and may differ between calls on the same input.
func Unique() Stage {
	return materialize(func(lines []string) []string {
		set := make(map[string]struct{}, len(lines))
		for _, line := range lines {
			set[line] = struct{}{}
		}
		out := make([]string, 0, len(set))
		for line := range set {
			out = append(out, line)
		}
		return out
	})
}

func keep(pred func(string) bool) Stage {
	return func(in Stream) Stream {
		return func(yield func(string, error) bool) {
			for line, err := range in {
				if err != nil {
					yield("", err)
					return
				}
				if pred(line) && !yield(line, nil) {
					return
				}
			}
		}
	}
}

// materialize collects the whole input, hands it to fn, and streams the
// result. Upstream errors pass through and fn is not called.
func materialize(fn func([]string) []string) Stage {
	return func(in Stream) Stream {
		return func(yield func(string, error) bool) {
			lines, err := Collect(in)
			if err != nil {
				yield("", err)
				return
			}
			for _, line := range fn(lines) {
				if !yield(line, nil) {
					return
				}
			}
		}
	}
}

// parseInt accepts an optionally signed base-10 integer with surrounding
// whitespace.
func parseInt(op, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ArgumentError{Op: op, Value: s, Err: err}
	}
	return n, nil
}
