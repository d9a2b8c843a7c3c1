package secrets

import "os"

// EnvLoader builds a Loader over a fixed set of environment variables.
// Unset or empty variables do not appear in the snapshot, which lets
// callers fall back to config-file values for those keys.
func EnvLoader(names ...string) Loader {
	return func() (map[string]string, error) {
		snapshot := make(map[string]string, len(names))
		for _, name := range names {
			if val, ok := os.LookupEnv(name); ok && val != "" {
				snapshot[name] = val
			}
		}
		return snapshot, nil
	}
}
