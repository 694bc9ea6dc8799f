package templates

import (
	"embed"
	"html/template"

	"github.com/pkg/errors"
)

//go:embed *.html
var templatesFS embed.FS

func Parse() (*template.Template, error) {
	tmpl, err := template.ParseFS(templatesFS, "*.html")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return tmpl, nil
}
