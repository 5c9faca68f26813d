package params

import (
	"fmt"
	"strings"
)

// ParseKeyValuePairs reads --dao-opt values. Each entry is key=value; the
// key is trimmed and the value kept verbatim, so "filter= a b" sets filter to
// " a b". Giving the same key twice is an error.
func ParseKeyValuePairs(pairs []string) (map[string]string, error) {
	opts := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		switch {
		case !found:
			return nil, fmt.Errorf("dao option %q needs key=value, e.g. csv_dir=./dump", pair)
		case key == "":
			return nil, fmt.Errorf("dao option %q has no key", pair)
		}
		if prev, dup := opts[key]; dup {
			return nil, fmt.Errorf("dao option %s given twice (%q and %q)", key, prev, value)
		}
		opts[key] = value
	}
	return opts, nil
}
