package runner

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/smokerun/internal/example"
)

// internalEnvPrefix marks variables scoped to one harness invocation.
// Hooks and watch mode re-enter the harness, so run-scoped variables from
// an outer run must not leak into child examples.
const internalEnvPrefix = "SMOKERUN_"

// childEnv returns the environment for an example process: the parent
// environment minus harness-internal variables, plus unbuffered output so
// log capture and idle detection see lines as they are printed.
func childEnv(t *example.Target) []string {
	env := scrubInternal(os.Environ())
	env = append(env,
		"PYTHONUNBUFFERED=1",
		internalEnvPrefix+"EXAMPLE="+t.Name,
	)
	return env
}

// scrubInternal filters harness-internal variables from the list.
func scrubInternal(environ []string) []string {
	clean := make([]string, 0, len(environ))
	for _, entry := range environ {
		name, _, ok := strings.Cut(entry, "=")
		if ok && strings.HasPrefix(strings.ToUpper(name), internalEnvPrefix) {
			continue
		}
		clean = append(clean, entry)
	}
	return clean
}

// ResolveEnv resolves "env:VAR_NAME" references in a configured env map to
// actual values, so config files can forward host variables without
// hardcoding them. Returns an error if a referenced variable is unset.
func ResolveEnv(env map[string]string) (map[string]string, error) {
	if len(env) == 0 {
		return nil, nil
	}
	resolved := make(map[string]string, len(env))
	for k, v := range env {
		if strings.HasPrefix(v, "env:") {
			envKey := strings.TrimPrefix(v, "env:")
			envVal := os.Getenv(envKey)
			if envVal == "" {
				return nil, fmt.Errorf("env var %q (referenced by %q) is not set", envKey, k)
			}
			resolved[k] = envVal
		} else {
			resolved[k] = v
		}
	}
	return resolved, nil
}

// MapToEnvSlice converts an env map to sorted "K=V" entries.
func MapToEnvSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	s := make([]string, 0, len(env))
	for k, v := range env {
		s = append(s, k+"="+v)
	}
	sort.Strings(s)
	return s
}
