package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bundleSources(t *testing.T, entry string, sources map[string]string, deps DependencyTable) (string, *Bundler, *Log) {
	t.Helper()
	blog := NewLog()
	b := NewBundler(testResolver(sources, nil, deps), sources, blog)
	out, err := b.Bundle(entry)
	require.NoError(t, err)
	return out, b, blog
}

func TestBundle_EntryWithoutImports(t *testing.T) {
	out, b, _ := bundleSources(t, "src/main.tsx", map[string]string{
		"src/main.tsx": "const app = 1;\n",
	}, nil)

	// Runtime first, one registration, entry invocation last
	assert.True(t, strings.HasPrefix(out, "const __modules"))
	assert.Equal(t, 1, strings.Count(out, "__register("))
	assert.Contains(t, out, `__register("src/main.tsx", function (__exports, __require) {`)
	assert.Contains(t, out, "const app = 1;")
	assert.True(t, strings.HasSuffix(out, "__require(\"src/main.tsx\");\n"))
	assert.Equal(t, 1, b.ModuleCount())
	assert.Empty(t, b.Externals())
}

func TestBundle_MissingEntry(t *testing.T) {
	b := NewBundler(testResolver(nil, nil, nil), nil, NewLog())

	_, err := b.Bundle("src/main.tsx")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry point")
}

func TestBundle_DiamondRegisteredOnce(t *testing.T) {
	sources := map[string]string{
		"src/main.tsx":  "import { a } from \"./a\";\nimport { b } from \"./b\";\nconsole.log(a, b);\n",
		"src/a.ts":      "import { shared } from \"./shared\";\nexport const a = shared + 1;\n",
		"src/b.ts":      "import { shared } from \"./shared\";\nexport const b = shared + 2;\n",
		"src/shared.ts": "export const shared = 10;\n",
	}

	out, b, _ := bundleSources(t, "src/main.tsx", sources, nil)

	assert.Equal(t, 4, b.ModuleCount())
	assert.Equal(t, 1, strings.Count(out, `__register("src/shared.ts"`))

	// Dependencies register before their dependents
	shared := strings.Index(out, `__register("src/shared.ts"`)
	a := strings.Index(out, `__register("src/a.ts"`)
	main := strings.Index(out, `__register("src/main.tsx"`)
	assert.Less(t, shared, a)
	assert.Less(t, a, main)
}

func TestBundle_CycleTerminates(t *testing.T) {
	sources := map[string]string{
		"src/a.ts": "import { b } from \"./b\";\nexport const a = () => b;\n",
		"src/b.ts": "import { a } from \"./a\";\nexport const b = () => a;\n",
	}

	out, b, _ := bundleSources(t, "src/a.ts", sources, nil)

	assert.Equal(t, 2, b.ModuleCount())
	assert.Equal(t, 1, strings.Count(out, `__register("src/a.ts"`))
	assert.Equal(t, 1, strings.Count(out, `__register("src/b.ts"`))
}

func TestBundle_ExternalHoistedOnce(t *testing.T) {
	sources := map[string]string{
		"src/main.tsx": "import React from \"react\";\nimport { App } from \"./app\";\nReact.go(App);\n",
		"src/app.tsx":  "import { useState } from \"react\";\nexport const App = () => useState(0);\n",
	}
	deps := DependencyTable{"react": "18.2.0"}

	out, b, _ := bundleSources(t, "src/main.tsx", sources, deps)

	assert.Equal(t, 1, strings.Count(out, `import * as __pkg_react from "https://esm.sh/react@18.2.0";`))
	require.Len(t, b.Externals(), 1)
	assert.Equal(t, "__pkg_react", b.Externals()[0].Ident)

	// Default import goes through CommonJS interop
	assert.Contains(t, out, "const React = __pkg_react.default ?? __pkg_react;")
	assert.Contains(t, out, "const { useState } = __pkg_react;")
}

func TestBundle_ExternalSubpathDistinctURL(t *testing.T) {
	sources := map[string]string{
		"src/main.tsx": "import { createRoot } from \"react-dom/client\";\nimport ReactDOM from \"react-dom\";\ncreateRoot(ReactDOM);\n",
	}
	deps := DependencyTable{"react-dom": "18.2.0"}

	out, b, _ := bundleSources(t, "src/main.tsx", sources, deps)

	// Same package, different URLs: two hoisted imports, distinct idents
	require.Len(t, b.Externals(), 2)
	assert.Contains(t, out, `from "https://esm.sh/react-dom@18.2.0/client";`)
	assert.Contains(t, out, `from "https://esm.sh/react-dom@18.2.0";`)
	assert.NotEqual(t, b.Externals()[0].Ident, b.Externals()[1].Ident)
}

func TestBundle_UnresolvedModuleSubstituted(t *testing.T) {
	sources := map[string]string{
		"src/main.tsx": "import logo from \"./logo.svg\";\nshow(logo);\n",
	}

	out, _, blog := bundleSources(t, "src/main.tsx", sources, nil)

	assert.Contains(t, logText(blog), "src/logo.svg not found")
	assert.Contains(t, out, `__register("src/logo.svg"`)
	assert.Contains(t, out, `const { default: logo } = __require("src/logo.svg");`)
}

func TestBundle_StylesheetImportDropped(t *testing.T) {
	sources := map[string]string{
		"src/main.tsx": "import \"./index.css\";\nconst app = 1;\n",
	}

	out, b, _ := bundleSources(t, "src/main.tsx", sources, nil)

	assert.Equal(t, 1, b.ModuleCount())
	assert.NotContains(t, out, "index.css")
}

func TestBundle_ExportRewrites(t *testing.T) {
	sources := map[string]string{
		"src/main.tsx": "import App, { theme } from \"./app\";\nrender(App, theme);\n",
		"src/app.tsx":  "export default function App() { return null; }\nexport const theme = \"dark\";\n",
	}

	out, _, _ := bundleSources(t, "src/main.tsx", sources, nil)

	// The declaration stays in place; assignments land at the end
	assert.Contains(t, out, "function App() { return null; }")
	assert.Contains(t, out, "__exports.default = App;")
	assert.Contains(t, out, "const theme = \"dark\";")
	assert.Contains(t, out, "__exports.theme = theme;")
	assert.Contains(t, out, `const { default: App, theme } = __require("src/app.tsx");`)
}

func TestBundle_ExportDefaultExpression(t *testing.T) {
	sources := map[string]string{
		"src/config.ts": "export default { retries: 3 };\n",
	}

	out, _, _ := bundleSources(t, "src/config.ts", sources, nil)

	assert.Contains(t, out, "__exports.default = { retries: 3 };")
}

func TestBundle_ExportBracesAndStar(t *testing.T) {
	sources := map[string]string{
		"src/index.ts": "export { helper as util };\nconst helper = 1;\nexport * from \"./more\";\n",
		"src/more.ts":  "export const extra = 2;\n",
	}

	out, b, _ := bundleSources(t, "src/index.ts", sources, nil)

	assert.Equal(t, 2, b.ModuleCount())
	assert.Contains(t, out, "__exports.util = helper;")
	assert.Contains(t, out, `__reexport(__exports, __require("src/more.ts"));`)
}

func TestBundle_ReexportFromExternal(t *testing.T) {
	sources := map[string]string{
		"src/index.ts": "export { useState, default as React } from \"react\";\n",
	}
	deps := DependencyTable{"react": "18.2.0"}

	out, _, _ := bundleSources(t, "src/index.ts", sources, deps)

	assert.Contains(t, out, "__exports.useState = __pkg_react.useState;")
	assert.Contains(t, out, "__exports.React = __pkg_react.default ?? __pkg_react;")
}

func TestBundle_NamespaceImport(t *testing.T) {
	sources := map[string]string{
		"src/main.ts": "import * as util from \"./util\";\nutil.go();\n",
		"src/util.ts": "export const go = () => {};\n",
	}

	out, _, _ := bundleSources(t, "src/main.ts", sources, nil)

	assert.Contains(t, out, `const util = __require("src/util.ts");`)
}

func TestSanitizeIdent(t *testing.T) {
	assert.Equal(t, "__pkg_react", sanitizeIdent("react"))
	assert.Equal(t, "__pkg__radix_ui_react_dialog", sanitizeIdent("@radix-ui/react-dialog"))
}
