package avouch

// Limits bounds rule compilation so a hostile or runaway configuration
// cannot exhaust the process. Zero fields take the defaults.
type Limits struct {
	MaxExpressionLength int // bytes per condition string
	MaxRules            int // compiled rules per engine
	MaxNestingDepth     int // parenthesis depth per condition
}

func DefaultLimits() Limits {
	return Limits{
		MaxExpressionLength: 4096,
		MaxRules:            256,
		MaxNestingDepth:     32,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxExpressionLength <= 0 {
		l.MaxExpressionLength = d.MaxExpressionLength
	}
	if l.MaxRules <= 0 {
		l.MaxRules = d.MaxRules
	}
	if l.MaxNestingDepth <= 0 {
		l.MaxNestingDepth = d.MaxNestingDepth
	}
	return l
}
