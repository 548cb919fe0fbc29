package project

// IsRouterEnabled reports whether plugins.router.enabled resolves to true
// for the given project/user settings cascade. Missing file, missing key,
// or a non-boolean value all resolve to enabled; only an explicit JSON/YAML
// `false` disables the router. The check is idempotent and independent of
// call order with other reads: it re-derives the answer from the cascade
// every time, with no cached state.
func IsRouterEnabled(projectRoot, userHome string) bool {
	return LoadConfig(projectRoot, userHome).RouterEnabled
}
