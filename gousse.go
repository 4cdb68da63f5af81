// Package gousse builds reactive pages out of events, components and
// routes running on an in-process document.
//
// An App owns one document and everything bound to it: the task loop, the
// event bus, the annotation processor, the component factory and the
// router. Applications create one App per page or session:
//
//	app := gousse.New(cfg)
//	app.Start(nil, gousse.Spec{
//	    Render: func(root *dom.Node) any {
//	        return app.Router().Mount(routes)
//	    },
//	})
//	app.Boot()
//	_ = app.Drain(ctx)
//	fmt.Println(app.HTML())
//
// Nothing happens before Boot: Start and Ready callbacks wait for the
// GousseReady event, which Boot publishes once every promise added with
// AddReadyPromise has resolved.
package gousse

import (
	"github.com/vango-dev/gousse/pkg/bus"
)

// Version is the library version.
const Version = "0.3.0"

// Events published by an App.
const (
	// GousseReady is published by Boot.
	GousseReady = bus.GousseReady

	// AppReady is published once Start has set up the root.
	AppReady = bus.AppReady
)

// HiddenStyle is the style sheet injected on boot for data-visibility.
const HiddenStyle = ".gousse-hide { display: none; }"
