// Package config loads gousse settings.
//
// Settings come from gousse.json or gousse.yaml in the working directory
// (or an explicit file), overridden by GOUSSE_* environment variables and
// bound command line flags:
//
//	router:
//	  mode: pushstate
//	components:
//	  customElements: true
//	  defaultShadow: open
//	dom:
//	  legacyMutationEvents: true
//	server:
//	  addr: ":8080"
//	  site: site.yaml
//	  watch: true
//	  renderTimeout: 2s
//	metrics:
//	  namespace: gousse
//	log:
//	  level: info
//
// GOUSSE_SERVER_ADDR=:9000 overrides server.addr.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Listening on", cfg.Server.Addr)
package config
