package respond

import (
	"fmt"
	"io"
	"net/http"
)

// TplData is a map of template data. This is a convenience type for passing data to templates.
type TplData map[string]any

// TemplateInstance is an interface that wraps the ExecuteTemplate method.
// It is implemented by the html/template and text/template packages.
type TemplateInstance interface {
	// ExecuteTemplate executes a template with the given name and data.
	ExecuteTemplate(wr io.Writer, name string, data any) error
}

// TemplateRenderer renders pre-parsed templates to HTTP responses.
type TemplateRenderer struct {
	t TemplateInstance
}

// NewTemplateRenderer creates a new template renderer with the given template instance.
func NewTemplateRenderer(t TemplateInstance) *TemplateRenderer {
	return &TemplateRenderer{t: t}
}

// HTML renders a template with the given name and data.
// The content type is set to "text/html" and the encoding to "utf-8".
// If rendering fails, it will panic with an error.
func (r *TemplateRenderer) HTML(w http.ResponseWriter, code int, name string, data any) {
	w.Header().Set("Content-Type", "text/html;charset=utf-8")
	w.WriteHeader(code)

	if err := r.t.ExecuteTemplate(w, name, data); err != nil {
		panic(fmt.Errorf("error rendering template %s: %v", name, err))
	}
}
