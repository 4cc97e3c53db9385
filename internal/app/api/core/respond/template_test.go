package respond

import (
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTemplateRenderer_HTML(t *testing.T) {
	tmpl := template.Must(template.New("greet.gohtml").Parse(`<p>Hello, {{ .Name }}!</p>`))
	renderer := NewTemplateRenderer(tmpl)

	rec := httptest.NewRecorder()
	renderer.HTML(rec, http.StatusOK, "greet.gohtml", TplData{"Name": "World"})

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, res.StatusCode)
	}

	if contentType := res.Header.Get("Content-Type"); contentType != "text/html;charset=utf-8" {
		t.Errorf("expected content type %s, got %s", "text/html;charset=utf-8", contentType)
	}

	body, _ := io.ReadAll(res.Body)
	expectedBody := "<p>Hello, World!</p>"
	if string(body) != expectedBody {
		t.Errorf("expected body %s, got %s", expectedBody, string(body))
	}
}

func TestTemplateRenderer_HTML_unknownName(t *testing.T) {
	tmpl := template.Must(template.New("known.gohtml").Parse(`ok`))
	renderer := NewTemplateRenderer(tmpl)

	defer func() {
		if recover() == nil {
			t.Error("expected a panic for an unknown template name")
		}
	}()

	renderer.HTML(httptest.NewRecorder(), http.StatusOK, "unknown.gohtml", nil)
}
