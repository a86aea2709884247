// Package render implementa o renderer de perfis.
package render

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
	"github.com/JeanGrijp/cascade-gateway/internal/core/ports"
)

const profileTemplate = `
      <h1>{{.Username}}</h1>
      <p>{{.Bio}}</p>
    `

type HTMLRenderer struct {
	tmpl *template.Template
}

var _ ports.Renderer = (*HTMLRenderer)(nil)

func NewHTMLRenderer() (*HTMLRenderer, error) {
	return NewHTMLRendererFrom(profileTemplate)
}

// NewHTMLRendererFrom compila um template de perfil alternativo.
func NewHTMLRendererFrom(src string) (*HTMLRenderer, error) {
	tmpl, err := template.New("profile").Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse profile template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

func (r *HTMLRenderer) Render(_ context.Context, view domain.ProfileView) (string, error) {
	var b strings.Builder
	if err := r.tmpl.Execute(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}
