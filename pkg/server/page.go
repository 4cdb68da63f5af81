package server

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/vango-dev/gousse"
	"github.com/vango-dev/gousse/pkg/dom"
)

// LivePath is where the live client connects.
const LivePath = "/live"

// liveScript connects the page to its live session. It forwards clicks,
// input, submits and location changes, and swaps the body for every html
// frame.
const liveScript = `(function () {
  var proto = location.protocol === "https:" ? "wss:" : "ws:";
  var url = location.pathname + location.search + location.hash;
  var ws = new WebSocket(proto + "//" + location.host + "` + LivePath + `?url=" + encodeURIComponent(url));
  function send(f) { if (ws.readyState === 1) { ws.send(JSON.stringify(f)); } }
  function path(el) {
    var p = [];
    while (el && el !== document.body && el.parentElement) {
      p.unshift(Array.prototype.indexOf.call(el.parentElement.children, el));
      el = el.parentElement;
    }
    return el === document.body ? p : null;
  }
  ws.onmessage = function (m) {
    var f = JSON.parse(m.data);
    if (f.type === "html") {
      if (document.body.setHTMLUnsafe) { document.body.setHTMLUnsafe(f.html); } else { document.body.innerHTML = f.html; }
      if (f.url && f.url.charAt(0) === "#") {
        if ((location.hash || "#") !== f.url) { location.hash = f.url; }
      } else if (f.url && f.url !== location.pathname + location.search) {
        history.pushState({}, "", f.url);
      }
    } else if (f.type === "reload") {
      location.reload();
    }
  };
  document.addEventListener("click", function (e) {
    var p = path(e.target);
    if (!p) { return; }
    if (e.target.closest && e.target.closest("a[data-go]")) { e.preventDefault(); }
    send({type: "dispatch", event: "click", path: p});
  }, true);
  document.addEventListener("input", function (e) {
    var p = path(e.target);
    if (p) { send({type: "input", path: p, value: e.target.value}); }
  }, true);
  document.addEventListener("submit", function (e) {
    var p = path(e.target);
    if (p) { e.preventDefault(); send({type: "dispatch", event: "submit", path: p}); }
  }, true);
  window.addEventListener("popstate", function () {
    send({type: "navigate", url: location.pathname + location.search});
  });
  window.addEventListener("hashchange", function () {
    send({type: "navigate", url: location.hash || "#"});
  });
})();`

// Page renders app's document as a complete page. With live set, the
// live client script is added to the head first.
func Page(app *gousse.App, live bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if live {
			head := app.Document().Head()
			if s, _ := head.QuerySelector("script[data-gousse-live]"); s == nil {
				head.AppendChild(dom.H("script", dom.Data("gousse-live", "true"), liveScript))
			}
		}
		return app.Render(w)
	})
}
