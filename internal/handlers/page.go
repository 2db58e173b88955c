package handlers

import (
	"bytes"
	"html/template"

	"pdfqa/internal/controller"
)

type PageData struct {
	controller.DisplayState
	ShowContext bool
	Backend     string
	Live        bool
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>PDF Q&amp;A</title>
    <style>
      body { font-family: ui-sans-serif, system-ui, sans-serif; max-width: 860px; margin: 32px auto; padding: 0 16px; color: #1f2430; }
      section { border: 1px solid #d8dce6; border-radius: 10px; padding: 16px; margin-bottom: 16px; }
      h2 { font-size: 16px; margin: 0 0 12px; }
      textarea { width: 100%; min-height: 72px; box-sizing: border-box; }
      .notice { background: #fff4d6; border: 1px solid #f0c36d; border-radius: 8px; padding: 10px 12px; margin-bottom: 16px; }
      .muted { color: #6b7489; font-size: 12px; }
      pre { white-space: pre-wrap; margin: 0; font-family: inherit; }
      #loading { display: none; }
      #loading.visible { display: block; }
    </style>
  </head>
  <body>
    <h1>PDF Q&amp;A</h1>
    <p class="muted">Backend: {{.Backend}}</p>

    {{range .Notifications}}<div class="notice" role="alert">{{.}}</div>{{end}}

    <section>
      <h2>Index a PDF</h2>
      <form id="indexForm" method="post" action="/index" enctype="multipart/form-data">
        <input type="file" id="pdfFile" name="file" accept="application/pdf"{{if .IndexPending}} disabled{{end}} />
        <button type="submit" id="indexBtn"{{if .IndexPending}} disabled{{end}}>{{.IndexLabel}}</button>
        {{if .SelectedFile}}<div class="muted">Last selected: {{.SelectedFile}}</div>{{end}}
      </form>
    </section>

    <section>
      <h2>Ask a question</h2>
      <form id="askForm" method="post" action="/ask">
        <textarea id="question" name="question"{{if .AskPending}} disabled{{end}}>{{.Question}}</textarea>
        <label><input type="checkbox" id="enablePlanning" name="enable_planning"{{if .Planning}} checked{{end}} /> Enable planning</label>
        <button type="submit" id="askBtn"{{if .AskPending}} disabled{{end}}>Ask</button>
      </form>
      <div id="loading"{{if .AskPending}} class="visible"{{end}}>Thinking...</div>
    </section>

    <section>
      <h2>Plan</h2>
      <pre id="plan">{{.Plan}}</pre>
    </section>

    <section>
      <h2>Sub-questions</h2>
      <ul id="subQuestions">{{range .SubQuestions}}<li>{{.}}</li>{{end}}</ul>
    </section>

    <section>
      <h2>Answer</h2>
      <pre id="answer">{{.Answer}}</pre>
    </section>

    {{if .ShowContext}}
    <section>
      <h2>Context</h2>
      <pre id="context">{{.Context}}</pre>
    </section>
    {{end}}

    <script>
      // Immediate feedback only; the server guards against duplicate submits.
      document.getElementById("indexForm").addEventListener("submit", function () {
        var btn = document.getElementById("indexBtn");
        btn.textContent = "{{.IndexingLabel}}";
        setTimeout(function () {
          btn.disabled = true;
          document.getElementById("pdfFile").disabled = true;
        }, 0);
      });
      document.getElementById("askForm").addEventListener("submit", function () {
        document.getElementById("loading").className = "visible";
        document.getElementById("plan").textContent = "";
        document.getElementById("answer").textContent = "";
        setTimeout(function () {
          document.getElementById("askBtn").disabled = true;
          document.getElementById("question").disabled = true;
        }, 0);
      });
      {{if .Live}}
      (function () {
        var scheme = location.protocol === "https:" ? "wss://" : "ws://";
        var ws = new WebSocket(scheme + location.host + "/ws");
        ws.onmessage = function (ev) {
          var u = JSON.parse(ev.data);
          var indexBtn = document.getElementById("indexBtn");
          indexBtn.textContent = u.index_label;
          indexBtn.disabled = u.index_pending;
          document.getElementById("pdfFile").disabled = u.index_pending;
          document.getElementById("askBtn").disabled = u.ask_pending;
          document.getElementById("question").disabled = u.ask_pending;
          document.getElementById("loading").className = u.ask_pending ? "visible" : "";
          document.getElementById("plan").textContent = u.plan;
          document.getElementById("answer").textContent = u.answer;
          var ctx = document.getElementById("context");
          if (ctx) { ctx.textContent = u.context; }
          var list = document.getElementById("subQuestions");
          list.innerHTML = "";
          u.sub_questions.forEach(function (item) {
            var li = document.createElement("li");
            li.textContent = item;
            list.appendChild(li);
          });
        };
      })();
      {{end}}
    </script>
  </body>
</html>
`))

// IndexingLabel is the in-progress label the page shows on submit.
func (PageData) IndexingLabel() string { return controller.LabelIndexing }

func RenderPage(data PageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
