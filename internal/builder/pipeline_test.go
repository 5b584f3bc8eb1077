package builder

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoProject() map[string]string {
	return map[string]string{
		"package.json": `{"name":"demo-app","dependencies":{"react":"^18.2.0","react-dom":"^18.2.0"}}`,
		"src/main.tsx": "import React from \"react\";\n" +
			"import { createRoot } from \"react-dom/client\";\n" +
			"import App from \"./App\";\n" +
			"import \"./index.css\";\n\n" +
			"createRoot(document.getElementById(\"root\")).render(<App />);\n",
		"src/App.tsx": "import React from \"react\";\n" +
			"import { Button } from \"./components/Button\";\n\n" +
			"export default function App() {\n" +
			"  return (\n" +
			"    <div className=\"flex items-center sm:flex p-4\">\n" +
			"      <Button label=\"Go\" />\n" +
			"    </div>\n" +
			"  );\n" +
			"}\n",
		"src/components/Button.tsx": "interface ButtonProps {\n" +
			"  label: string;\n" +
			"}\n\n" +
			"export function Button({ label }: ButtonProps) {\n" +
			"  return <button className=\"rounded-lg bg-blue-500\">{label}</button>;\n" +
			"}\n",
		"src/index.css":      ":root {\n  --background: 0 0% 100%;\n}\n",
		"public/favicon.svg": "<svg />",
	}
}

func readOutputZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(b)
	}
	return out
}

func TestPipeline_EndToEnd(t *testing.T) {
	res, err := New(Options{}).Run(context.Background(), wrapProject(demoProject()))
	require.NoError(t, err)

	// Caret ranges pin to their base version in CDN URLs
	assert.Contains(t, res.Bundle, `https://esm.sh/react@18.2.0`)
	assert.Contains(t, res.Bundle, `https://esm.sh/react-dom@18.2.0/client`)

	// All three project modules registered, types stripped
	assert.Contains(t, res.Bundle, `__register("src/main.tsx"`)
	assert.Contains(t, res.Bundle, `__register("src/App.tsx"`)
	assert.Contains(t, res.Bundle, `__register("src/components/Button.tsx"`)
	assert.NotContains(t, res.Bundle, "interface ButtonProps")
	assert.NotContains(t, res.Bundle, ": ButtonProps")

	// Utility CSS reflects the classes used in the components
	assert.Contains(t, res.CSS, ".flex { display: flex; }")
	assert.Contains(t, res.CSS, "@media (min-width: 640px)")
	assert.Contains(t, res.CSS, ".bg-blue-500")
	assert.Contains(t, res.CSS, "--background: 0 0% 100%;")

	// Output archive: generated files plus public assets at the root
	out := readOutputZip(t, res.OutputZip)
	require.Contains(t, out, "index.html")
	require.Contains(t, out, "bundle.js")
	require.Contains(t, out, "styles.css")
	require.Contains(t, out, "favicon.svg")
	assert.Equal(t, res.Bundle, out["bundle.js"])
	assert.Contains(t, out["index.html"], "<title>demo-app</title>")
	assert.Contains(t, out["index.html"], `<script type="module" src="./bundle.js">`)

	// Preview inlines everything
	assert.Contains(t, res.PreviewHTML, "<style>")
	assert.Contains(t, res.PreviewHTML, "__require(\"src/main.tsx\");")

	assert.Equal(t, 6, res.Stats.FileCount)
	assert.Equal(t, 3, res.Stats.SourceCount)
	assert.Equal(t, 1, res.Stats.CSSFileCount)
	assert.Equal(t, 2, res.Stats.DependencyCount)
	assert.Equal(t, 3, res.Stats.ModuleCount)
	assert.Equal(t, 2, res.Stats.ExternalCount)
	assert.Positive(t, res.Stats.BundleSize)
	assert.Positive(t, res.Stats.ZipSize)
	assert.Empty(t, res.Stats.Workspace)
	assert.NotEmpty(t, res.Log.Lines())
}

func TestPipeline_MissingEntry(t *testing.T) {
	res, err := New(Options{}).Run(context.Background(), wrapProject(map[string]string{
		"package.json":  `{"name":"no-entry"}`,
		"src/other.tsx": "export const x = 1;",
	}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry point")
	// The log is still available for the caller
	require.NotNil(t, res)
	assert.Contains(t, logText(res.Log), "no entry module")
}

func TestPipeline_CorruptArchive(t *testing.T) {
	res, err := New(Options{}).Run(context.Background(), []byte("not a zip at all"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry point")
	assert.Empty(t, res.Files)
}

func TestPipeline_WorkspaceFallback(t *testing.T) {
	project := map[string]string{
		"package.json":              `{"name":"mono","workspaces":["apps/*","packages/*"]}`,
		"apps/web/package.json":     `{"name":"web","dependencies":{"@acme/ui":"workspace:*"}}`,
		"apps/web/src/main.tsx":     "import { Button } from \"@acme/ui\";\nButton();\n",
		"packages/ui/package.json":  `{"name":"@acme/ui","version":"1.0.0"}`,
		"packages/ui/src/index.tsx": "export const Button = () => null;\n",
	}

	res, err := New(Options{}).Run(context.Background(), wrapProject(project))
	require.NoError(t, err)

	assert.Equal(t, "web", res.Stats.Workspace)
	assert.Contains(t, res.Bundle, `__register("apps/web/src/main.tsx"`)
	assert.Contains(t, res.Bundle, `__register("packages/ui/src/index.tsx"`)
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(Options{}).Run(ctx, wrapProject(demoProject()))

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
}

func TestPipeline_CustomCDN(t *testing.T) {
	res, err := New(Options{CDNBase: "https://cdn.example.com"}).Run(context.Background(), wrapProject(demoProject()))
	require.NoError(t, err)

	assert.Contains(t, res.Bundle, "https://cdn.example.com/react@18.2.0")
	assert.NotContains(t, res.Bundle, "esm.sh")
}
