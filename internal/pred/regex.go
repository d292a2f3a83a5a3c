package pred

import "regexp"

// compiledRegex is the Go stand-in for CUBRID's cub_compiled_regex: a
// memoized compiled pattern stashed on the owning regu.Func node's Compiled
// field so repeated RLIKE evaluation against the same pattern across tuples
// avoids recompiling, and released by regu.ClearXASL at teardown.
type compiledRegex struct {
	pattern       string
	caseSensitive bool
	re            *regexp.Regexp
}

func compileRegex(pattern string, caseSensitive bool) (*compiledRegex, error) {
	p := pattern
	if !caseSensitive {
		p = "(?i)" + p
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	return &compiledRegex{pattern: pattern, caseSensitive: caseSensitive, re: re}, nil
}
