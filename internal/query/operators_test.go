package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stage Stage, lines ...string) []string {
	t.Helper()
	out, err := Collect(stage(FromSlice(lines)))
	require.NoError(t, err)
	return out
}

func TestFilter(t *testing.T) {
	assert.Equal(t, []string{"GET /a", "GET /b"}, run(t, Filter("GET"), "GET /a", "POST /a", "GET /b"))
	assert.Equal(t, []string{"x", ""}, run(t, Filter(""), "x", ""))
	assert.Empty(t, run(t, Filter("zzz"), "a", "b"))
}

func TestRegexFilter(t *testing.T) {
	stage, err := RegexFilter(`\d{3}$`)
	require.NoError(t, err)
	assert.Equal(t, []string{"status 200", "status 404"}, run(t, stage, "status 200", "status ok", "status 404"))

	// Matches anywhere in the line, not only at the start.
	stage, err = RegexFilter(`b+`)
	require.NoError(t, err)
	assert.Equal(t, []string{"abbc"}, run(t, stage, "abbc", "ac"))
}

func TestRegexFilter_BadPattern(t *testing.T) {
	_, err := RegexFilter("(")
	require.Error(t, err)

	var pe *PatternError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "(", pe.Pattern)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestColumnMap(t *testing.T) {
	tests := []struct {
		name  string
		index string
		in    []string
		want  []string
	}{
		{"first column", "0", []string{"a 1", "b 2"}, []string{"a", "b"}},
		{"second column", "1", []string{"a 1", "b 2"}, []string{"1", "2"}},
		{"negative counts from end", "-1", []string{"a b c", "d e"}, []string{"c", "e"}},
		{"single spaces only", "1", []string{"a  b"}, []string{""}},
		{"whitespace around index", " 1 ", []string{"a 1"}, []string{"1"}},
		{"explicit plus sign", "+0", []string{"a 1"}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, err := ColumnMap(tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.want, run(t, stage, tt.in...))
		})
	}
}

func TestColumnMap_BadIndex(t *testing.T) {
	for _, arg := range []string{"", "one", "1.5", "0x1"} {
		_, err := ColumnMap(arg)
		var ae *ArgumentError
		require.ErrorAs(t, err, &ae, "arg %q", arg)
		assert.Equal(t, OpMap, ae.Op)
	}
}

func TestColumnMap_OutOfRange(t *testing.T) {
	stage, err := ColumnMap("2")
	require.NoError(t, err)

	out, err := Collect(stage(FromSlice([]string{"a b c", "a b"})))
	assert.Nil(t, out)

	var ie *IndexError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 2, ie.Index)
	assert.Equal(t, 2, ie.Fields)
	assert.Equal(t, "a b", ie.Line)
}

func TestSort(t *testing.T) {
	in := []string{"b", "a", "C", "c"}
	asc := run(t, Sort("asc"), in...)
	assert.Equal(t, []string{"C", "a", "b", "c"}, asc)

	desc := run(t, Sort(SortDesc), in...)
	assert.Equal(t, []string{"c", "b", "a", "C"}, desc)

	// Anything but "desc" is ascending.
	for _, order := range []string{"", "ASC", "DESC", "descending", "random"} {
		assert.Equal(t, asc, run(t, Sort(order), in...), "order %q", order)
	}
}

func TestLimit(t *testing.T) {
	five := []string{"1", "2", "3", "4", "5"}

	tests := []struct {
		n    string
		want []string
	}{
		{"0", []string{}},
		{"2", []string{"1", "2"}},
		{"5", five},
		{"10", five},
		{"-1", []string{"1", "2", "3", "4"}},
		{"-5", []string{}},
		{"-10", []string{}},
		{" 3\n", []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.n, func(t *testing.T) {
			stage, err := Limit(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, run(t, stage, five...))
		})
	}
}

func TestLimit_BadArgument(t *testing.T) {
	_, err := Limit("ten")
	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, OpLimit, ae.Op)
	assert.Equal(t, "ten", ae.Value)
}

func TestLimit_ReadsWholeInput(t *testing.T) {
	boom := errors.New("boom")
	src := func(yield func(string, error) bool) {
		if !yield("a", nil) {
			return
		}
		yield("", boom)
	}

	stage, err := Limit("1")
	require.NoError(t, err)

	_, err = Collect(stage(src))
	require.ErrorIs(t, err, boom)
}

func TestUnique(t *testing.T) {
	out := run(t, Unique(), "a", "b", "a", "c", "b")
	assert.ElementsMatch(t, []string{"a", "b", "c"}, out)
	assert.Empty(t, run(t, Unique()))
}

func TestMaterialize_PassesErrors(t *testing.T) {
	boom := errors.New("boom")
	called := false
	stage := materialize(func(lines []string) []string {
		called = true
		return lines
	})

	_, err := Collect(stage(func(yield func(string, error) bool) {
		yield("", boom)
	}))
	require.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestStagesAreLazy(t *testing.T) {
	pulled := 0
	src := func(yield func(string, error) bool) {
		for _, line := range []string{"a", "b", "c"} {
			pulled++
			if !yield(line, nil) {
				return
			}
		}
	}

	stage := Filter("")(src)
	assert.Zero(t, pulled)

	for range stage {
		break
	}
	assert.Equal(t, 1, pulled)
}
