package ratelimit

// ResolveLimit picks the configured limit for scope and subject. A zero limit disables limiting.
func ResolveLimit(cfg SettingsConfig, scope Scope, subject string) Decision {
	switch scope {
	case ScopeClientIP:
		return Decision{Limit: cfg.AuthLimit, Scope: scope, Subject: subject}
	case ScopeWebhook:
		return Decision{Limit: cfg.WebhookLimit, Scope: scope, Subject: subject}
	default:
		return Decision{}
	}
}
