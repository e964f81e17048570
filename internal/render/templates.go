package render

// pageTemplate is the standalone browser page hosting the viewer panel. It
// reloads the panel fragment whenever the hub announces a new reload key and
// opens it on openRHSPlugin.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    html, body { margin: 0; height: 100%; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; }
    header { display: flex; align-items: center; justify-content: space-between; padding: 8px 16px; border-bottom: 1px solid #dee2e6; }
    header h1 { font-size: 16px; margin: 0; }
    #panel { height: calc(100% - 49px); }
    #panel[hidden] { display: none; }
    .collabview-panel { height: 100%; }
    .collabview-empty { padding: 24px; color: #495057; }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <button id="toggle" type="button">Toggle</button>
  </header>
  <section id="panel" data-slot="{{.Slot}}" {{if not .Open}}hidden{{end}}>
    {{.Panel}}
  </section>
  <script>
  (function () {
    var panel = document.getElementById("panel");
    var slot = panel.dataset.slot;

    function show(open) { panel.hidden = !open; }

    function reload() {
      fetch("/panel/" + encodeURIComponent(slot))
        .then(function (r) { return r.text(); })
        .then(function (html) { panel.innerHTML = html; });
      fetch("/api/v1/panel?slot=" + encodeURIComponent(slot))
        .then(function (r) { return r.json(); })
        .then(function (v) { show(v.open); });
    }

    document.getElementById("toggle").addEventListener("click", function () {
      fetch("/api/v1/panel/toggle?slot=" + encodeURIComponent(slot), { method: "POST" })
        .then(function (r) { return r.json(); })
        .then(function (v) { show(v.open); });
    });

    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws/panel");
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "openRHSPlugin") { show(true); }
      if (msg.type === "viewerResolved") { reload(); }
    };
  })();
  </script>
</body>
</html>`
