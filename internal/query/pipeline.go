package query

import "context"

// Plan is the compiled, ordered list of stages selected by a Commands value.
type Plan struct {
	stages []Stage
	names  []string
}

// Compile turns cmds into a Plan. Stages are always ordered
//
//	filter → map → regex → sort → limit, or unique when limit is absent
//
// whatever order the commands arrived in. Arguments are checked here, so a bad
// regex or integer is reported before any file is opened.
func Compile(cmds Commands) (*Plan, error) {
	p := &Plan{}

	if cmds.Filter != nil {
		p.add(OpFilter, Filter(*cmds.Filter))
	}
	if cmds.Map != nil {
		stage, err := ColumnMap(*cmds.Map)
		if err != nil {
			return nil, err
		}
		p.add(OpMap, stage)
	}
	if cmds.Regex != nil {
		stage, err := RegexFilter(*cmds.Regex)
		if err != nil {
			return nil, err
		}
		p.add(OpRegex, stage)
	}
	if cmds.Sort != nil {
		p.add(OpSort, Sort(*cmds.Sort))
	}
	if cmds.Limit != nil {
		stage, err := Limit(*cmds.Limit)
		if err != nil {
			return nil, err
		}
		p.add(OpLimit, stage)
	} else if cmds.Unique != nil {
		p.add(OpUnique, Unique())
	}

	return p, nil
}

func (p *Plan) add(name string, stage Stage) {
	p.names = append(p.names, name)
	p.stages = append(p.stages, stage)
}

// Stages returns the operator names in the order they run.
func (p *Plan) Stages() []string {
	return append([]string(nil), p.names...)
}

// Apply threads src through every stage of the plan.
func (p *Plan) Apply(src Stream) Stream {
	s := src
	for _, stage := range p.stages {
		s = stage(s)
	}
	return s
}

// Compose compiles cmds and applies them to src. On error src is left
// unconsumed.
func Compose(src Stream, cmds Commands) (Stream, error) {
	plan, err := Compile(cmds)
	if err != nil {
		return nil, err
	}
	return plan.Apply(src), nil
}

// Opener produces the line stream for a file identifier.
type Opener interface {
	Open(name string) (Stream, error)
}

// Run opens name, applies cmds and returns the materialized result. Reading
// stops early if ctx is cancelled.
func Run(ctx context.Context, src Opener, name string, cmds Commands) ([]string, error) {
	plan, err := Compile(cmds)
	if err != nil {
		return nil, err
	}

	lines, err := src.Open(name)
	if err != nil {
		return nil, err
	}

	return Collect(plan.Apply(WithContext(ctx, lines)))
}
