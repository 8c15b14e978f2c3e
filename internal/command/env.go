package command

import (
	"sort"
	"strings"
)

// Environment variables the runner reads or injects.
const (
	DebugVar  = "SLS_DEBUG"
	CIVar     = "CI"
	LocaleAll = "LC_ALL"
	LocaleVar = "LANG"

	debugValue  = "t"
	localeValue = "C.UTF-8"
)

// Overlay maps variable names to values layered over an environment.
type Overlay map[string]string

// DefaultOverlays returns the overlays every child receives on top of the
// ambient environment: the debug flag, then the locale pair when the CI
// indicator is present and non-empty.
func DefaultOverlays(ambient []string) []Overlay {
	overlays := []Overlay{{DebugVar: debugValue}}
	if lookup(ambient, CIVar) != "" {
		overlays = append(overlays, Overlay{
			LocaleAll: localeValue,
			LocaleVar: localeValue,
		})
	}
	return overlays
}

// BuildEnv merges overlays onto ambient (KEY=VALUE entries) and returns the
// result in KEY=VALUE form. Later overlays override earlier ones; ambient
// ordering is preserved and new keys are appended in sorted order.
func BuildEnv(ambient []string, overlays ...Overlay) []string {
	values := make(map[string]string, len(ambient))
	order := make([]string, 0, len(ambient))

	for _, kv := range ambient {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = value
	}

	var added []string
	for _, overlay := range overlays {
		for key, value := range overlay {
			if _, seen := values[key]; !seen {
				added = append(added, key)
			}
			values[key] = value
		}
	}
	sort.Strings(added)
	order = append(order, added...)

	env := make([]string, 0, len(order))
	for _, key := range order {
		env = append(env, key+"="+values[key])
	}
	return env
}

// lookup returns the last value bound to key in a KEY=VALUE slice.
func lookup(env []string, key string) string {
	var value string
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == key {
			value = v
		}
	}
	return value
}
