//go:build !js_policy

package envelope

// NewJSPolicy is unavailable without the js_policy build tag.
func NewJSPolicy(expression string, opts ...JSPolicyOption) Policy {
	_ = applyJSPolicyOptions(opts)
	return nil
}

func jsPolicyAvailable() bool {
	return false
}
