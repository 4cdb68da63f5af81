package router

import (
	"reflect"
	"testing"

	gerrors "github.com/vango-dev/gousse/internal/errors"
)

func TestRequestBind(t *testing.T) {
	req := Request{
		Route: Route{Query: map[string]string{"tab": "posts", "n": "3", "debug": "true"}},
		Named: map[string]string{"id": "42", "path": "a/b", "ratio": "0.5"},
	}
	var target struct {
		ID      int      `param:"id"`
		Path    []string `param:"path"`
		Ratio   float64  `param:"ratio"`
		Tab     string   `query:"tab"`
		N       uint8    `query:"n"`
		Debug   bool     `query:"debug"`
		Missing string   `param:"missing"`
		Plain   string
	}
	if err := req.Bind(&target); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if target.ID != 42 || target.Ratio != 0.5 || target.Tab != "posts" || target.N != 3 || !target.Debug {
		t.Errorf("Bind() = %+v", target)
	}
	if !reflect.DeepEqual(target.Path, []string{"a", "b"}) {
		t.Errorf("Path = %v", target.Path)
	}
	if target.Missing != "" || target.Plain != "" {
		t.Errorf("untouched fields set: %+v", target)
	}
}

func TestRequestBindErrors(t *testing.T) {
	req := Request{Named: map[string]string{"id": "x", "big": "300"}}

	var bad struct {
		ID int `param:"id"`
	}
	if err := req.Bind(&bad); !gerrors.HasCode(err, "G012") {
		t.Errorf("Bind(invalid int) error = %v, want G012", err)
	}

	var overflow struct {
		Big uint8 `param:"big"`
	}
	if err := req.Bind(&overflow); !gerrors.HasCode(err, "G012") {
		t.Errorf("Bind(overflow) error = %v, want G012", err)
	}

	var notPointer struct{}
	if err := req.Bind(notPointer); !gerrors.HasCode(err, "G012") {
		t.Errorf("Bind(non-pointer) error = %v, want G012", err)
	}
	if err := req.Bind(nil); err != nil {
		t.Errorf("Bind(nil) error = %v", err)
	}
}
