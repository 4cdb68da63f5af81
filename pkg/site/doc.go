// Package site describes a gousse application in a YAML file: its routes,
// not-found page and template components.
//
//	title: Demo
//	router: pushstate
//	routes:
//	  - pattern: /
//	    html: <h1>Home</h1><x-greet name="you"></x-greet>
//	  - pattern: /users/{id}
//	    html: <h1>User {id}</h1><p>Tab: {query.tab}</p>
//	notFound: <h1>Not found</h1>
//	components:
//	  - name: x-greet
//	    shadow: none
//	    html: <p>Hello <b data-var="name"></b></p>
//
// Route markup is interpolated with the captured placeholders, the query
// under "query" and the URL under "url". Values are HTML-escaped.
package site
