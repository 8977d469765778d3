package view

const layout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 860px; margin: 0 auto; padding: 1rem; }
.chatbox { display: flex; flex-direction: column; gap: .5rem; max-height: 70vh; overflow-y: auto; }
.message { padding: .5rem .75rem; border-radius: 6px; white-space: pre-wrap; }
.message.user { align-self: flex-end; background: #dbeafe; }
.message.assistant { align-self: flex-start; background: #f3f4f6; }
.message.failed { background: #fee2e2; }
.notice { color: #b91c1c; font-size: .85rem; }
.diagram img { max-width: 100%; }
form.send { display: flex; gap: .5rem; margin-top: 1rem; }
form.send input[type=text] { flex: 1; }
</style>
</head>
<body>
{{template "body" .}}
</body>
</html>
`

const indexBody = `{{define "body"}}
<h1>Start a conversation</h1>
<ul>
{{range .Profiles}}
<li>
<form method="post" action="/sessions">
<input type="hidden" name="profileId" value="{{.ID}}">
<button type="submit">{{.Name}}</button> {{.Description}}
</form>
</li>
{{end}}
</ul>
{{end}}`

const sessionBody = `{{define "body"}}
<h1>{{.Profile.Name}}</h1>
{{if .Flash}}<p class="notice">{{.Flash}}</p>{{end}}
<div class="chatbox" id="chatbox">
{{range .Turns}}
<div class="message {{.Sender}}{{if .Failed}} failed{{end}}" data-turn="{{.ID}}">
{{- if and .Diagram (not .ShowRaw)}}
{{- with .Diagram}}{{.Before}}{{end}}
<div class="diagram" id="diagram-{{.ID}}"><img src="{{.ImageURL}}" alt="diagram"></div>
<a href="{{.PDFURL}}" download="diagram.pdf">Download PDF</a>
{{- with .Diagram}}{{.After}}{{end}}
{{- else}}{{.Text}}{{if .Notice}}
<div class="notice">{{.Notice}}</div>{{end}}{{end -}}
</div>
{{end}}
</div>
<form class="send" method="post" action="/sessions/{{.Session.ID}}/send">
<input type="text" name="text" autocomplete="off" autofocus>
<button type="submit">Send</button>
</form>
<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/api/ws/{{.Session.ID}}");
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === "turn") { location.reload(); }
  };
  var box = document.getElementById("chatbox");
  box.scrollTop = box.scrollHeight;
})();
</script>
{{end}}`
