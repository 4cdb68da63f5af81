package router

import (
	"regexp"
	"strings"
	"sync"

	gerrors "github.com/vango-dev/gousse/internal/errors"
)

var placeholderRE = regexp.MustCompile(`\{[^}*]+\}`)

// Pattern is a compiled route pattern.
type Pattern struct {
	raw      string
	re       *regexp.Regexp
	names    []string
	wildcard bool
}

// Result is a successful match.
type Result struct {
	// Groups are the captured values in order.
	Groups []string

	// Named maps placeholder names to their captured values.
	Named map[string]string

	// Wildcard is set when the pattern ends with a non-capturing /*.
	Wildcard bool
}

// Compile compiles a route pattern.
func Compile(pattern string) (*Pattern, error) {
	if strings.HasPrefix(pattern, "^") {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, gerrors.New("G010").WithDetail(pattern).Wrap(err)
		}
		return &Pattern{raw: pattern, re: re, names: re.SubexpNames()[1:]}, nil
	}

	var (
		b     strings.Builder
		names []string
		last  int
	)
	for _, loc := range placeholderRE.FindAllStringIndex(pattern, -1) {
		b.WriteString(strings.ReplaceAll(pattern[last:loc[0]], ".", `\.`))
		b.WriteString("([^/]+)")
		names = append(names, strings.TrimSpace(pattern[loc[0]+1:loc[1]-1]))
		last = loc[1]
	}
	b.WriteString(strings.ReplaceAll(pattern[last:], ".", `\.`))
	src := b.String()

	p := &Pattern{raw: pattern, names: names}
	switch {
	case strings.HasSuffix(src, "/{*}"):
		src = src[:len(src)-3] + "(.*)"
	case strings.HasSuffix(src, "/*"):
		src = src[:len(src)-2] + ".*"
		p.wildcard = true
	}

	re, err := regexp.Compile("(?i)^" + src + "$")
	if err != nil {
		return nil, gerrors.New("G010").WithDetail(pattern).Wrap(err)
	}
	p.re = re
	return p, nil
}

// MustCompile is Compile for patterns known to be valid. It panics on
// error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source pattern.
func (p *Pattern) String() string { return p.raw }

// Match matches url against the pattern.
func (p *Pattern) Match(url string) (Result, bool) {
	m := p.re.FindStringSubmatch(NormalizePath(url))
	if m == nil {
		return Result{}, false
	}
	res := Result{Groups: m[1:], Wildcard: p.wildcard}
	if res.Groups == nil {
		res.Groups = []string{}
	}
	for i, name := range p.names {
		if name == "" || i >= len(res.Groups) {
			continue
		}
		if res.Named == nil {
			res.Named = make(map[string]string, len(p.names))
		}
		res.Named[name] = res.Groups[i]
	}
	return res, true
}

// NormalizePath drops one trailing slash; the empty path becomes "/".
func NormalizePath(url string) string {
	url = strings.TrimSuffix(url, "/")
	if url == "" {
		return "/"
	}
	return url
}

var patternCache sync.Map // string -> *Pattern

func compileCached(pattern string) (*Pattern, error) {
	if p, ok := patternCache.Load(pattern); ok {
		return p.(*Pattern), nil
	}
	p, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, p)
	return p, nil
}

// Match compiles pattern and matches url against it. Invalid patterns
// never match.
func Match(pattern, url string) (Result, bool) {
	p, err := compileCached(pattern)
	if err != nil {
		return Result{}, false
	}
	return p.Match(url)
}
