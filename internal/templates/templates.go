package templates

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/example/mulch/internal/models"
)

//go:embed prime/*.tmpl
var primeTemplates embed.FS

// PrimeDomain is one domain section of the prime output.
type PrimeDomain struct {
	Name    string
	Records []models.Record
}

// PrimeData is the input to the prime template.
type PrimeData struct {
	Domains []PrimeDomain
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
}

// GetPrimeTemplate returns the raw prime template content
func GetPrimeTemplate() (string, error) {
	content, err := primeTemplates.ReadFile("prime/expertise.md.tmpl")
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// RenderPrime writes the markdown context block for the given domains.
func RenderPrime(w io.Writer, data PrimeData) error {
	content, err := GetPrimeTemplate()
	if err != nil {
		return fmt.Errorf("failed to load prime template: %w", err)
	}
	tmpl, err := template.New("prime").Funcs(funcs).Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse prime template: %w", err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render prime template: %w", err)
	}
	return nil
}
