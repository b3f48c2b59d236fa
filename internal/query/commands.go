package query

import "strings"

// Operator names accepted in a command map.
const (
	OpFilter = "filter"
	OpMap    = "map"
	OpRegex  = "regex"
	OpSort   = "sort"
	OpLimit  = "limit"
	OpUnique = "unique"
)

// SortDesc is the only sort argument that selects descending order.
const SortDesc = "desc"

// Commands selects which operators run and with what argument.
// A nil field means the operator is skipped. The order operators run in is
// fixed by Compose and does not depend on how Commands was built.
type Commands struct {
	Filter *string
	Map    *string
	Regex  *string
	Sort   *string
	Limit  *string
	Unique *string
}

// Pair is one (operator name, argument) entry as received from a caller.
type Pair struct {
	Name  string
	Value string
}

// ParseCommands folds ordered pairs into Commands. A repeated name keeps its
// last value; names that are not operators are ignored.
func ParseCommands(pairs []Pair) Commands {
	var c Commands
	for _, p := range pairs {
		c.Set(p.Name, p.Value)
	}
	return c
}

// Set assigns the argument for the named operator and reports whether the
// name was recognized. Names are matched exactly.
func (c *Commands) Set(name, value string) bool {
	v := value
	switch name {
	case OpFilter:
		c.Filter = &v
	case OpMap:
		c.Map = &v
	case OpRegex:
		c.Regex = &v
	case OpSort:
		c.Sort = &v
	case OpLimit:
		c.Limit = &v
	case OpUnique:
		c.Unique = &v
	default:
		return false
	}
	return true
}

// Empty reports whether no operator is selected.
func (c Commands) Empty() bool {
	return c.Filter == nil && c.Map == nil && c.Regex == nil &&
		c.Sort == nil && c.Limit == nil && c.Unique == nil
}

// Names lists the selected operators in evaluation order. Unique is omitted
// when Limit is present since it will not run.
func (c Commands) Names() []string {
	names := make([]string, 0, 5)
	if c.Filter != nil {
		names = append(names, OpFilter)
	}
	if c.Map != nil {
		names = append(names, OpMap)
	}
	if c.Regex != nil {
		names = append(names, OpRegex)
	}
	if c.Sort != nil {
		names = append(names, OpSort)
	}
	if c.Limit != nil {
		names = append(names, OpLimit)
	} else if c.Unique != nil {
		names = append(names, OpUnique)
	}
	return names
}

// String renders the selected operators as name=value pairs in evaluation
// order, for logs and the query history.
func (c Commands) String() string {
	var b strings.Builder
	for i, name := range c.Names() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(c.arg(name))
	}
	return b.String()
}

func (c Commands) arg(name string) string {
	var p *string
	switch name {
	case OpFilter:
		p = c.Filter
	case OpMap:
		p = c.Map
	case OpRegex:
		p = c.Regex
	case OpSort:
		p = c.Sort
	case OpLimit:
		p = c.Limit
	case OpUnique:
		p = c.Unique
	}
	if p == nil {
		return ""
	}
	return *p
}
