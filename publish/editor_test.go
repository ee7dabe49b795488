package publish

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const editorPage = `<!doctype html>
<html><body>
<input id="title">
<div id="body" contenteditable="true"></div>
<button id="publish" onclick="publish()">Publish</button>
<script>
function publish() {
	if (!document.getElementById('title').value) { return; }
	if (!document.getElementById('body').innerHTML) { return; }
	const done = document.createElement('p');
	done.id = 'done';
	done.textContent = 'published';
	document.body.appendChild(done);
	location.hash = 'published';
}
</script>
</body></html>`

// newEditorServer serves a minimal editor page.
func newEditorServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(editorPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}
