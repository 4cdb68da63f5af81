// Package router maps URLs to render handlers.
//
// Patterns are matched case-insensitively against the path of the current
// route, without its query string and trailing slash:
//
//	/users/{id}        {id} captures one segment
//	/files/{*}         captures the rest of the path, slash excluded
//	/docs/*            matches the rest of the path without capturing it
//	^/raw/(\d+)$       a leading ^ uses the pattern as a regular expression
//
// A Router keeps the current route and publishes RouteChanged on the bus
// each time it changes. Mount returns a connector container that renders
// the first matching route of a Table:
//
//	table := router.NewTable().
//	    Handle("/", home).
//	    Handle("/users/{id}", user).
//	    NotFound(notFound)
//	app.Body().AppendChild(r.Mount(table))
//	r.Go("/users/{id}", map[string]any{"id": 42, "tab": "posts"}, nil)
//	// navigates to /users/42?tab=posts
//
// Navigation goes through the location hash (ModeHash) or an in-memory
// History (ModePushState).
package router
