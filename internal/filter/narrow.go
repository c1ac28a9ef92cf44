package filter

import "regexp"

// Matcher compiles pattern for a case-insensitive search anywhere in a value.
func Matcher(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}

// Narrow returns the candidate list offered for exact-match selection: the
// empty "no constraint" choice followed by every value in full matching
// pattern. An empty or malformed pattern leaves the list unfiltered. Empty
// values in full are skipped so "" appears exactly once.
func Narrow(full []string, pattern string) []string {
	out := make([]string, 0, len(full)+1)
	out = append(out, "")

	var re *regexp.Regexp
	if pattern != "" {
		re, _ = Matcher(pattern)
	}
	for _, v := range full {
		if v == "" {
			continue
		}
		if re == nil || re.MatchString(v) {
			out = append(out, v)
		}
	}
	return out
}
