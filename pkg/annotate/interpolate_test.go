package annotate

import (
	"testing"

	gerrors "github.com/vango-dev/gousse/internal/errors"
)

func TestInterpolate(t *testing.T) {
	vars := map[string]any{
		"name": "Ada",
		"user": map[string]any{"id": 7, "tags": []string{"x", "y"}},
		"nothing": nil,
	}
	tests := []struct {
		tpl  string
		want string
	}{
		{"plain", "plain"},
		{"hello {name}", "hello Ada"},
		{"hello ${name}!", "hello Ada!"},
		{"id={user.id}", "id=7"},
		{"{ user.id }", "7"},
		{"first={user.tags.0}", "first=x"},
		{"count={user.tags.#}", "count=2"},
		{"{{literal}}", "{literal}"},
		{"cost $5", "cost $5"},
		{"[{nothing}]", "[]"},
		{"a } b", "a } b"},
		{"use { to open", "use { to open"},
		{"Total { {name} EUR", "Total { Ada EUR"},
		{"costs ${ and {name}", "costs ${ and Ada"},
		{"empty {} and { }", "empty {} and { }"},
		{"trailing {", "trailing {"},
	}
	for _, tt := range tests {
		got, err := Interpolate(tt.tpl, vars)
		if err != nil {
			t.Errorf("Interpolate(%q) error = %v", tt.tpl, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Interpolate(%q) = %q, want %q", tt.tpl, got, tt.want)
		}
	}
}

func TestInterpolateEnvOrder(t *testing.T) {
	got, err := Interpolate("{value}/{name}", map[string]any{"value": 1}, map[string]any{"value": 2, "name": "n"})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if got != "1/n" {
		t.Errorf("Interpolate() = %q, want 1/n", got)
	}
}

func TestInterpolateMissingPath(t *testing.T) {
	got, err := Interpolate("a{missing}b", map[string]any{})
	if !gerrors.HasCode(err, "G030") {
		t.Errorf("error = %v, want G030", err)
	}
	if got != "ab" {
		t.Errorf("Interpolate() = %q, want ab", got)
	}
}

func TestInterpolateUnterminatedIsText(t *testing.T) {
	got, err := Interpolate("a{b", map[string]any{"b": 1})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if got != "a{b" {
		t.Errorf("Interpolate() = %q, want a{b", got)
	}
}

func TestInterpolateNeverEvaluates(t *testing.T) {
	got, _ := Interpolate("{alert(1)}", map[string]any{})
	if got != "" {
		t.Errorf("Interpolate() = %q, want empty", got)
	}
}

func TestInterpolateUnmarshalable(t *testing.T) {
	_, err := Interpolate("{x}", map[string]any{"x": func() {}})
	if !gerrors.HasCode(err, "G030") {
		t.Errorf("error = %v, want G030", err)
	}
}
