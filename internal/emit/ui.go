package emit

import (
	"html"
	"strings"
)

// swaggerUIPage loads a single document file.
const swaggerUIPage = `<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: "{{.SpecURL}}",
                dom_id: '#swagger-ui',
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIBundle.SwaggerUIStandalonePreset
                ],
                layout: "BaseLayout"
            });
        }
    </script>
</body>
</html>
`

// swaggerUIChunkedPage fetches the manifest, merges every chunk it lists
// and hands the merged document to Swagger UI.
const swaggerUIChunkedPage = `<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
    <script>
        async function loadChunked(manifestURL) {
            const base = manifestURL.substring(0, manifestURL.lastIndexOf('/') + 1);
            const manifest = await (await fetch(manifestURL)).json();
            const parts = await Promise.all(manifest.chunks.map(function(c) {
                return fetch(base + c.file).then(function(r) { return r.json(); });
            }));
            const doc = parts[0];
            doc.paths = doc.paths || {};
            for (const part of parts.slice(1)) {
                Object.assign(doc.paths, part.paths || {});
                const schemas = (part.components || {}).schemas;
                if (schemas) {
                    doc.components = doc.components || {};
                    doc.components.schemas = Object.assign(doc.components.schemas || {}, schemas);
                }
            }
            return doc;
        }

        window.onload = async function() {
            const spec = await loadChunked("{{.SpecURL}}");
            SwaggerUIBundle({
                spec: spec,
                dom_id: '#swagger-ui',
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIBundle.SwaggerUIStandalonePreset
                ],
                layout: "BaseLayout"
            });
        }
    </script>
</body>
</html>
`

// SwaggerUI renders the index.html page. With chunked set, specURL names
// the chunk manifest instead of a document.
func SwaggerUI(title, specURL string, chunked bool) []byte {
	if title == "" {
		title = "API Documentation"
	}
	page := swaggerUIPage
	if chunked {
		page = swaggerUIChunkedPage
	}
	replacer := strings.NewReplacer(
		"{{.Title}}", html.EscapeString(title),
		"{{.SpecURL}}", strings.ReplaceAll(specURL, `"`, `\"`),
	)
	return []byte(replacer.Replace(page))
}
