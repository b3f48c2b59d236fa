package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommands(t *testing.T) {
	c := ParseCommands([]Pair{
		{Name: "filter", Value: "GET"},
		{Name: "bogus", Value: "x"},
		{Name: "limit", Value: "5"},
		{Name: "filter", Value: "POST"},
		{Name: "Sort", Value: "desc"},
	})

	require.NotNil(t, c.Filter)
	assert.Equal(t, "POST", *c.Filter, "last value wins")
	require.NotNil(t, c.Limit)
	assert.Equal(t, "5", *c.Limit)
	assert.Nil(t, c.Sort, "names are case sensitive")
	assert.Nil(t, c.Map)
	assert.Nil(t, c.Regex)
	assert.Nil(t, c.Unique)
}

func TestCommands_Set(t *testing.T) {
	var c Commands
	assert.True(t, c.Set(OpUnique, ""))
	assert.False(t, c.Set("uniq", ""))

	require.NotNil(t, c.Unique)
	assert.Equal(t, "", *c.Unique)
}

func TestCommands_Empty(t *testing.T) {
	assert.True(t, Commands{}.Empty())
	assert.True(t, ParseCommands([]Pair{{Name: "nope", Value: "1"}}).Empty())
	assert.False(t, ParseCommands([]Pair{{Name: OpSort, Value: ""}}).Empty())
}

func TestCommands_NamesAndString(t *testing.T) {
	c := ParseCommands([]Pair{
		{Name: OpUnique, Value: ""},
		{Name: OpLimit, Value: "2"},
		{Name: OpRegex, Value: "^a"},
		{Name: OpFilter, Value: "x"},
	})

	assert.Equal(t, []string{OpFilter, OpRegex, OpLimit}, c.Names())
	assert.Equal(t, "filter=x regex=^a limit=2", c.String())

	assert.Empty(t, Commands{}.Names())
	assert.Equal(t, "", Commands{}.String())
}
