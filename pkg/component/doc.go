// Package component builds reusable components on top of the DOM, the bus
// and the annotation processor.
//
// A component is a render function. The Factory turns it into either a
// custom element or a plain constructor function:
//
//	card, err := f.Define("user-card", func(ctx *component.Context, props component.Props, children []*dom.Node) any {
//	    ctx.On([]string{"UserSaved"}, func(e *dom.Event) { ... }, false)
//	    return dom.H("article", dom.H("h2", props.String("name")), children)
//	}, component.ShadowNone)
//
// Each rendered instance owns a Context. The Context moves from Unattached
// to Connected when its nodes enter the document and to Disconnected, for
// good, when they leave it. Subscriptions made with Context.On only live
// while the instance is connected.
package component
