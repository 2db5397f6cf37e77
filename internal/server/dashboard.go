package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// dashboardHandler serves the operations landing page. It is a static shell;
// live numbers arrive over the /ws stream.
func dashboardHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Guardian</title>
<style>
  body { font-family: -apple-system, 'Segoe UI', sans-serif; background: #0d1117; color: #e6edf3; margin: 0; }
  .wrap { max-width: 880px; margin: 0 auto; padding: 48px 24px; }
  h1 { font-size: 28px; margin-bottom: 4px; }
  .sub { color: #8b949e; margin-bottom: 32px; }
  .cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(240px, 1fr)); gap: 16px; }
  .card { background: #161b22; border: 1px solid #30363d; border-radius: 8px; padding: 20px; }
  .card h2 { font-size: 14px; color: #8b949e; margin: 0 0 8px; text-transform: uppercase; letter-spacing: .05em; }
  .card .big { font-size: 28px; font-weight: 600; }
  .feed { margin-top: 32px; background: #161b22; border: 1px solid #30363d; border-radius: 8px; padding: 20px; }
  .feed h2 { font-size: 14px; color: #8b949e; margin: 0 0 12px; text-transform: uppercase; letter-spacing: .05em; }
  .event { padding: 8px 0; border-bottom: 1px solid #21262d; font-size: 13px; font-family: ui-monospace, monospace; }
  .risk-critical { color: #f85149; }
  .risk-high { color: #d29922; }
  .risk-medium { color: #58a6ff; }
  .risk-low { color: #3fb950; }
  a { color: #58a6ff; }
</style>
</head>
<body>
<div class="wrap">
  <h1>Guardian</h1>
  <div class="sub">Explainable behavioral risk engine &mdash; <a href="/api">API</a> &middot; <a href="/health">health</a> &middot; <a href="/metrics">metrics</a></div>
  <div class="cards">
    <div class="card"><h2>Sessions analyzed</h2><div class="big" id="sessions">&ndash;</div></div>
    <div class="card"><h2>Reason stacks</h2><div class="big" id="stacks">&ndash;</div></div>
    <div class="card"><h2>Recommendations</h2><div class="big" id="recs">&ndash;</div></div>
  </div>
  <div class="feed"><h2>Live events</h2><div id="events"><div class="event">connecting&hellip;</div></div></div>
</div>
<script>
(function() {
  var counts = { sessions: 0, stacks: 0, recs: 0 };
  var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  var ws = new WebSocket(proto + location.host + '/ws');
  var feed = document.getElementById('events');
  ws.onopen = function() {
    feed.innerHTML = '<div class="event">connected</div>';
    ws.send(JSON.stringify({ allEvents: true }));
  };
  ws.onmessage = function(msg) {
    var ev;
    try { ev = JSON.parse(msg.data); } catch (e) { return; }
    if (ev.type === 'session_completed') counts.sessions++;
    if (ev.type === 'reason_stack_created') counts.stacks++;
    if (ev.type === 'recommendation_created') counts.recs++;
    document.getElementById('sessions').textContent = counts.sessions;
    document.getElementById('stacks').textContent = counts.stacks;
    document.getElementById('recs').textContent = counts.recs;
    var line = document.createElement('div');
    line.className = 'event';
    var level = ev.data && ev.data.riskLevel ? ev.data.riskLevel : '';
    if (level) line.classList.add('risk-' + level);
    line.textContent = new Date().toISOString().slice(11, 19) + '  ' + ev.type +
      (ev.data && ev.data.subjectId ? '  subject=' + ev.data.subjectId : '') +
      (level ? '  risk=' + level : '');
    feed.insertBefore(line, feed.firstChild);
    while (feed.childNodes.length > 20) feed.removeChild(feed.lastChild);
  };
  ws.onclose = function() {
    var line = document.createElement('div');
    line.className = 'event';
    line.textContent = 'disconnected';
    feed.insertBefore(line, feed.firstChild);
  };
})();
</script>
</body>
</html>
`
