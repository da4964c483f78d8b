// Package swagger serves the API contract and a Swagger UI page rendering it.
package swagger

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	apicontract "github.com/tuanvumaihuynh/catalog-service/api-contract"
)

const (
	DocsPath = "/docs"
	SpecPath = "/docs/openapi.yml"

	uiVersion = "5.29.3"
)

var page = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '{{.SpecPath}}',
      dom_id: '#swagger-ui',
      deepLinking: true,
      displayOperationId: true,
    });
  };
</script>
</body>
</html>
`))

// Register mounts the docs page and the raw contract on r.
func Register(r chi.Router, title string) error {
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Title    string
		Version  string
		SpecPath string
	}{Title: title, Version: uiVersion, SpecPath: SpecPath})
	if err != nil {
		return err
	}
	html := buf.Bytes()

	r.Get(DocsPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(html) //nolint:errcheck
	})

	spec := apicontract.GetSpecBytes()
	r.Get(SpecPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Write(spec) //nolint:errcheck
	})

	return nil
}
