/*
PURPOSE:
  Precondition gate: every required environment variable must be present
  before any network call is made.

REQUIREMENTS:
  User-specified:
  - Report every missing key at once, in declaration order.

  Implementation-discovered:
  - Presence, not value: a variable set to "" passes.

ERROR HANDLING:
  - *model.ConfigMissingError listing the missing keys.

RELATED FILES:
  - internal/cli/check_env.go
*/

package config

import "github.com/daryltucker/wpt-reporter/internal/model"

// CheckRequired returns the names absent from present, in the order of names.
func CheckRequired(names []string, present map[string]struct{}) []string {
	var missing []string
	for _, n := range names {
		if _, ok := present[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Present returns the set of keys in environ. A key set to "" is present.
func Present(environ map[string]string) map[string]struct{} {
	set := make(map[string]struct{}, len(environ))
	for k := range environ {
		set[k] = struct{}{}
	}
	return set
}

// Gate fails with *model.ConfigMissingError when any required key is absent.
func Gate(names []string, present map[string]struct{}) error {
	if missing := CheckRequired(names, present); len(missing) > 0 {
		return &model.ConfigMissingError{Keys: missing}
	}
	return nil
}
