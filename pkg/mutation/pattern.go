package mutation

import (
	"regexp"

	"github.com/erni27/imcache"
)

const maxCachedPatterns = 512

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

// patterns holds compiled attribute regexes keyed by source, including the
// ones that failed to compile.
var patterns = imcache.New[string, compiledPattern](
	imcache.WithMaxEntriesOption[string, compiledPattern](maxCachedPatterns),
)

func compilePattern(expr string) (*regexp.Regexp, error) {
	if cached, ok := patterns.Get(expr); ok {
		return cached.re, cached.err
	}
	re, err := regexp.Compile(expr)
	patterns.Set(expr, compiledPattern{re: re, err: err}, imcache.WithNoExpiration())
	return re, err
}
