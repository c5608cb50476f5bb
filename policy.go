package envelope

// PolicyContext carries one mismatched distribution for a policy decision.
type PolicyContext struct {
	Package  string
	Recorded string
	Current  string
	Missing  bool
}

// Policy decides whether a version difference may be tolerated. Tolerated
// entries are removed from the mismatch before it is surfaced.
type Policy interface {
	Tolerate(ctx PolicyContext) (bool, error)
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ctx PolicyContext) (bool, error)

// Tolerate implements Policy.
func (f PolicyFunc) Tolerate(ctx PolicyContext) (bool, error) {
	if f == nil {
		return false, nil
	}
	return f(ctx)
}

// applyPolicy filters a mismatch through the policy. A failing policy keeps
// the entry: an undecided difference still deserves a warning.
func applyPolicy(policy Policy, mismatch Mismatch) Mismatch {
	if policy == nil || len(mismatch) == 0 {
		return mismatch
	}
	kept := Mismatch{}
	for name, pair := range mismatch {
		tolerated, err := policy.Tolerate(PolicyContext{
			Package:  name,
			Recorded: pair.Recorded,
			Current:  pair.Current,
			Missing:  pair.Missing,
		})
		if err != nil || !tolerated {
			kept[name] = pair
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
