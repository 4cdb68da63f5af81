package annotate

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	gerrors "github.com/vango-dev/gousse/internal/errors"
)

// Interpolate replaces each {path} or ${path} in tpl with the value found at
// path in the first env that has it. Envs are looked up through their JSON
// form. A missing path is replaced by the empty string and reported in the
// returned error; the rest of the template is still filled. A brace that
// does not open a well-formed {path} is copied as text.
func Interpolate(tpl string, envs ...any) (string, error) {
	if !strings.ContainsAny(tpl, "{}") {
		return tpl, nil
	}

	docs := make([][]byte, 0, len(envs))
	for _, env := range envs {
		if env == nil {
			continue
		}
		data, err := json.Marshal(env)
		if err != nil {
			return "", gerrors.New("G030").Wrap(err)
		}
		docs = append(docs, data)
	}

	var (
		b       strings.Builder
		missing []string
	)
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		switch {
		case c == '{' && i+1 < len(tpl) && tpl[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tpl) && tpl[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '$' && i+1 < len(tpl) && tpl[i+1] == '{':
			if _, _, ok := placeholder(tpl, i+1); !ok {
				b.WriteByte(c)
			}
		case c == '{':
			path, next, ok := placeholder(tpl, i)
			if !ok {
				b.WriteByte(c)
				continue
			}
			val, found := lookup(docs, path)
			if !found {
				missing = append(missing, path)
			}
			b.WriteString(val)
			i = next - 1
		default:
			b.WriteByte(c)
		}
	}

	if len(missing) > 0 {
		return b.String(), gerrors.New("G030").WithDetailf("unknown %s", strings.Join(missing, ", "))
	}
	return b.String(), nil
}

func lookup(docs [][]byte, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	for _, doc := range docs {
		r := gjson.GetBytes(doc, path)
		if r.Exists() {
			if r.Type == gjson.Null {
				return "", true
			}
			return r.String(), true
		}
	}
	return "", false
}

// placeholder parses the {path} opening at tpl[open]. It returns the trimmed
// path and the index after the closing brace. A brace with no closing brace,
// an empty path or a nested brace is not a placeholder.
func placeholder(tpl string, open int) (path string, next int, ok bool) {
	end := strings.IndexByte(tpl[open+1:], '}')
	if end < 0 {
		return "", 0, false
	}
	inner := tpl[open+1 : open+1+end]
	path = strings.TrimSpace(inner)
	if path == "" || strings.ContainsRune(inner, '{') {
		return "", 0, false
	}
	return path, open + end + 2, true
}
