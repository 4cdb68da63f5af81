package dom

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"

	"github.com/a-h/templ"

	"github.com/vango-dev/gousse/pkg/loop"
)

// PlaceholderText is the comment text marking a pending deferred child.
const PlaceholderText = "placeholder"

// Append inserts children into parent, before the before node when it is
// non-nil, and returns the inserted nodes in order.
//
// Children may be nil, a *Node (fragments are emptied into parent), a
// []*Node, []any or any other slice, a string, a number, a bool, a
// templ.Component or a *loop.Promise. Empty strings, nil and false are
// skipped. A promise inserts a placeholder comment that is swapped for the
// resolved content once it is available; siblings are not affected.
func Append(parent *Node, children any, before *Node) []*Node {
	var out []*Node
	appendInto(parent, children, before, &out)
	return out
}

// Content replaces parent's children.
func Content(parent *Node, children ...any) []*Node {
	parent.Clear()
	return Append(parent, children, nil)
}

func appendInto(parent *Node, child any, before *Node, out *[]*Node) {
	switch v := child.(type) {
	case nil:
		return
	case *Node:
		if v == nil {
			return
		}
		if v.Kind == KindFragment && v.host == nil {
			*out = append(*out, v.Children()...)
		} else {
			*out = append(*out, v)
		}
		insertAt(parent, v, before)
	case []*Node:
		for _, c := range v {
			appendInto(parent, c, before, out)
		}
	case []any:
		for _, c := range v {
			appendInto(parent, c, before, out)
		}
	case *loop.Promise:
		if v == nil {
			return
		}
		placeholder := NewComment(PlaceholderText)
		*out = append(*out, placeholder)
		insertAt(parent, placeholder, before)
		v.Then(func(value any, err error) {
			if err != nil {
				slog.Default().Warn("deferred child rejected", "error", err)
				return
			}
			target := placeholder.parent
			if target == nil {
				return
			}
			Append(target, value, placeholder)
			_ = target.RemoveChild(placeholder)
		})
	case templ.Component:
		var buf bytes.Buffer
		if err := v.Render(context.Background(), &buf); err != nil {
			slog.Default().Error("templ component render failed", "error", err)
			return
		}
		ctxTag := "body"
		if parent.Kind == KindElement {
			ctxTag = parent.Tag
		}
		nodes, err := ParseFragment(&buf, ctxTag)
		if err != nil {
			slog.Default().Error("templ component output could not be parsed", "error", err)
			return
		}
		for _, n := range nodes {
			appendInto(parent, n, before, out)
		}
	case string:
		if v == "" {
			return
		}
		appendText(parent, v, before, out)
	case bool:
		if v {
			appendText(parent, "true", before, out)
		}
	case int:
		appendText(parent, strconv.Itoa(v), before, out)
	case int64:
		appendText(parent, strconv.FormatInt(v, 10), before, out)
	case float64:
		appendText(parent, strconv.FormatFloat(v, 'f', -1, 64), before, out)
	case fmt.Stringer:
		appendText(parent, v.String(), before, out)
	default:
		rv := reflect.ValueOf(child)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				appendInto(parent, rv.Index(i).Interface(), before, out)
			}
			return
		}
		appendText(parent, fmt.Sprint(child), before, out)
	}
}

func appendText(parent *Node, s string, before *Node, out *[]*Node) {
	t := NewText(s)
	*out = append(*out, t)
	insertAt(parent, t, before)
}

func insertAt(parent, n, before *Node) {
	if before != nil && before.parent == parent {
		_ = parent.InsertBefore(n, before)
		return
	}
	parent.AppendChild(n)
}

// Truthy reports whether v counts as a value rather than an absence: nil,
// false, zero numbers, NaN, empty strings and nil pointers do not.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && f == f
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
