package gate

import "fmt"

// OutcomeKind tags the three ways a gate evaluation can end.
type OutcomeKind uint8

const (
	// OutcomePending means identity is still being resolved: show a
	// placeholder, neither redirect nor render protected content.
	OutcomePending OutcomeKind = iota
	// OutcomeRender means the protected content may be shown.
	OutcomeRender
	// OutcomeRedirect means navigation must be replaced by Outcome.Target.
	OutcomeRedirect
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePending:
		return "pending"
	case OutcomeRender:
		return "render"
	case OutcomeRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", uint8(k))
	}
}

// Outcome is the decision of one gate evaluation. Target is set only for
// redirects.
type Outcome struct {
	Kind   OutcomeKind
	Target string
}

// Pending returns the pending outcome.
func Pending() Outcome { return Outcome{Kind: OutcomePending} }

// Render returns the render outcome.
func Render() Outcome { return Outcome{Kind: OutcomeRender} }

// Redirect returns a redirect outcome to target.
func Redirect(target string) Outcome { return Outcome{Kind: OutcomeRedirect, Target: target} }

func (o Outcome) String() string {
	if o.Kind == OutcomeRedirect {
		return "redirect(" + o.Target + ")"
	}
	return o.Kind.String()
}
