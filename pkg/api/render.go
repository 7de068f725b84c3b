package api

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templateFS embed.FS

const layout = "templates/base.html"

// htmlRender keeps one template set per page, each combined with the shared layout.
type htmlRender struct {
	pages map[string]*template.Template
}

func newHTMLRender() (*htmlRender, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &htmlRender{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		if name == layout {
			continue
		}
		t, err := template.New(path.Base(name)).ParseFS(templateFS, layout, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[path.Base(name)] = t
	}
	return r, nil
}

func (r *htmlRender) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic(fmt.Sprintf("html template %q is not defined", name))
	}
	return render.HTML{Template: t, Name: "base", Data: data}
}
