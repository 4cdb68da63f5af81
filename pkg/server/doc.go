// Package server serves a gousse site over HTTP.
//
// Every page request builds a fresh App for the requested URL, drains its
// loop within the configured render timeout and writes the document. The
// page carries a small client that connects to /live, where a Session
// keeps an App running on its own loop goroutine:
//
//	client                          server
//	  | --- GET /live?url=/x ------> |  new App on /x, Boot
//	  | <-- {type: hello} ---------- |
//	  | <-- {type: html} ----------- |  after every drained batch
//	  | --- {type: dispatch} ------> |  DispatchEvent on the target
//	  | --- {type: input} ---------> |  SetValue, input and change events
//	  | --- {type: emit} ----------> |  emit.Emit from the target
//	  | --- {type: navigate} ------> |  Router.Go
//
// Frames are JSON text messages, or msgpack binary messages when the
// client connects with ?codec=msgpack. Malformed frames are answered with
// an error frame (G060, G061) and the session stays open.
//
// Usage:
//
//	st, err := site.Load("site.yaml")
//	if err != nil {
//	    return err
//	}
//	srv := server.New(cfg, st, server.WithLogger(logger))
//	go srv.Watch(ctx, "site.yaml", 0)
//	return srv.ListenAndServe(ctx)
//
// GET /metrics exposes the Prometheus registry, including the HTTP
// request metrics and the gousse bus, router and session metrics.
package server
