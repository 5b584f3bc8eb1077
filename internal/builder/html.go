package builder

import (
	"fmt"
	"html"
	"strings"
)

const indexHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>%s</title>
<link rel="stylesheet" href="./styles.css" />
</head>
<body>
<div id="root"></div>
<script type="module" src="./bundle.js"></script>
</body>
</html>
`

const inlineHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>%s</title>
<style>
%s</style>
</head>
<body>
<div id="root"></div>
<script type="module">
%s</script>
</body>
</html>
`

// RenderIndexHTML produces the entry page written into the output
// archive. It references the bundle and stylesheet by relative path so
// the archive can be unpacked and served from any static host.
func RenderIndexHTML(title string) string {
	if title == "" {
		title = "App"
	}
	return fmt.Sprintf(indexHTMLTemplate, html.EscapeString(title))
}

// RenderInlineHTML produces a self-contained preview page with the
// stylesheet and bundle inlined, suitable for serving as a single
// document. External packages still load from the CDN since the bundle
// imports them by URL.
func RenderInlineHTML(title, css, js string) string {
	if title == "" {
		title = "App"
	}
	// A literal </script> or </style> inside the inlined text would
	// close the element early.
	js = strings.ReplaceAll(js, "</script", "<\\/script")
	css = strings.ReplaceAll(css, "</style", "<\\/style")
	return fmt.Sprintf(inlineHTMLTemplate, html.EscapeString(title), css, js)
}
