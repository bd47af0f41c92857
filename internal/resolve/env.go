package resolve

import (
	"os"
	"strings"
)

// Environment is a read-only snapshot of environment variables. The
// resolver never reads the process environment directly; callers inject a
// snapshot, which keeps substitution testable without mutating the real
// environment.
type Environment map[string]string

// SystemEnvironment snapshots the current process environment.
func SystemEnvironment() Environment {
	env := make(Environment)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
