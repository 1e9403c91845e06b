package artifactverify

import (
	"regexp"

	"github.com/cockroachdb/errors"
)

const DefaultFilterString = ".*"

type FilterString = string

func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		StemFilter: DefaultFilterString,
	}
}

type FilterConfig struct {
	StemFilter FilterString
}

// FilterResult keeps the artifacts of a result whose stems match the
// filter. Filters are POSIX regular expressions, matched anywhere in the
// stem unless anchored.
func FilterResult(cfg FilterConfig, r Result) (Result, error) {
	if cfg.StemFilter == DefaultFilterString || cfg.StemFilter == "" {
		return r, nil
	}
	stemRe, err := regexp.CompilePOSIX(cfg.StemFilter)
	if err != nil {
		return r, errors.Wrapf(err, "invalid stem filter %q", cfg.StemFilter)
	}
	newResult := Result{
		Verified:   r.Verified[:0],
		Skipped:    r.Skipped[:0],
		Extraneous: r.Extraneous[:0],
	}
	for _, v := range r.Verified {
		if stemRe.MatchString(v[0].Stem) {
			newResult.Verified = append(newResult.Verified, v)
		}
	}
	for _, a := range r.Skipped {
		if stemRe.MatchString(a.Stem) {
			newResult.Skipped = append(newResult.Skipped, a)
		}
	}
	for _, a := range r.Extraneous {
		if stemRe.MatchString(a.Stem) {
			newResult.Extraneous = append(newResult.Extraneous, a)
		}
	}
	return newResult, nil
}
