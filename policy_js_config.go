package envelope

type jsPolicyConfig struct {
	cache   ProgramCache
	helpers *HelperRegistry
}

// JSPolicyOption configures the JS policy.
type JSPolicyOption func(*jsPolicyConfig)

// JSWithProgramCache applies a ProgramCache to the JS policy.
func JSWithProgramCache(cache ProgramCache) JSPolicyOption {
	return func(cfg *jsPolicyConfig) {
		cfg.cache = cache
	}
}

// JSWithHelpers applies a HelperRegistry to the JS policy.
func JSWithHelpers(helpers *HelperRegistry) JSPolicyOption {
	return func(cfg *jsPolicyConfig) {
		if helpers == nil {
			return
		}
		cfg.helpers = helpers.Clone()
	}
}

func applyJSPolicyOptions(opts []JSPolicyOption) jsPolicyConfig {
	cfg := jsPolicyConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
