// Package telemetry collects Prometheus metrics and OpenTelemetry spans for
// gousse applications.
//
// A Telemetry value is created once per App and handed to the bus, the
// component factory, the router and the server. Every method is safe to
// call on a nil *Telemetry, which records nothing.
//
//	tel := telemetry.New(
//	    telemetry.WithNamespace("myapp"),
//	    telemetry.WithRegistry(prometheus.NewRegistry()),
//	)
//	ctx, end := tel.StartRender(ctx, "user-card")
//	defer end(nil)
//
// The tracer comes from the global OpenTelemetry provider, which is a noop
// until the program installs one.
package telemetry
