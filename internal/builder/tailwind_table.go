package builder

import (
	"strconv"
	"strings"
)

// The utility table is generated from the data below rather than
// written out rule by rule: scales and palettes cross with the
// properties they drive, so adding a spacing step or a color family is
// a one-line change. Values track the Tailwind defaults that project
// templates assume.

// cssRule is one utility: a declaration body, an optional selector
// suffix (for child-combinator rules like space-x-*), and an optional
// keyframes block emitted once when the rule is used.
type cssRule struct {
	Body      string
	Suffix    string
	Keyframes string
}

var spacingScale = map[string]string{
	"0": "0px", "0.5": "0.125rem", "1": "0.25rem", "1.5": "0.375rem",
	"2": "0.5rem", "2.5": "0.625rem", "3": "0.75rem", "3.5": "0.875rem",
	"4": "1rem", "5": "1.25rem", "6": "1.5rem", "7": "1.75rem",
	"8": "2rem", "9": "2.25rem", "10": "2.5rem", "11": "2.75rem",
	"12": "3rem", "14": "3.5rem", "16": "4rem", "20": "5rem",
	"24": "6rem", "28": "7rem", "32": "8rem", "36": "9rem",
	"40": "10rem", "48": "12rem", "56": "14rem", "64": "16rem",
	"72": "18rem", "80": "20rem", "96": "24rem", "px": "1px",
}

var colorShadeNames = []string{"50", "100", "200", "300", "400", "500", "600", "700", "800", "900", "950"}

// colorPalette lists hex values per family in colorShadeNames order.
var colorPalette = map[string][]string{
	"slate":   {"#f8fafc", "#f1f5f9", "#e2e8f0", "#cbd5e1", "#94a3b8", "#64748b", "#475569", "#334155", "#1e293b", "#0f172a", "#020617"},
	"gray":    {"#f9fafb", "#f3f4f6", "#e5e7eb", "#d1d5db", "#9ca3af", "#6b7280", "#4b5563", "#374151", "#1f2937", "#111827", "#030712"},
	"zinc":    {"#fafafa", "#f4f4f5", "#e4e4e7", "#d4d4d8", "#a1a1aa", "#71717a", "#52525b", "#3f3f46", "#27272a", "#18181b", "#09090b"},
	"neutral": {"#fafafa", "#f5f5f5", "#e5e5e5", "#d4d4d4", "#a3a3a3", "#737373", "#525252", "#404040", "#262626", "#171717", "#0a0a0a"},
	"stone":   {"#fafaf9", "#f5f5f4", "#e7e5e4", "#d6d3d1", "#a8a29e", "#78716c", "#57534e", "#44403c", "#292524", "#1c1917", "#0c0a09"},
	"red":     {"#fef2f2", "#fee2e2", "#fecaca", "#fca5a5", "#f87171", "#ef4444", "#dc2626", "#b91c1c", "#991b1b", "#7f1d1d", "#450a0a"},
	"orange":  {"#fff7ed", "#ffedd5", "#fed7aa", "#fdba74", "#fb923c", "#f97316", "#ea580c", "#c2410c", "#9a3412", "#7c2d12", "#431407"},
	"amber":   {"#fffbeb", "#fef3c7", "#fde68a", "#fcd34d", "#fbbf24", "#f59e0b", "#d97706", "#b45309", "#92400e", "#78350f", "#451a03"},
	"yellow":  {"#fefce8", "#fef9c3", "#fef08a", "#fde047", "#facc15", "#eab308", "#ca8a04", "#a16207", "#854d0e", "#713f12", "#422006"},
	"green":   {"#f0fdf4", "#dcfce7", "#bbf7d0", "#86efac", "#4ade80", "#22c55e", "#16a34a", "#15803d", "#166534", "#14532d", "#052e16"},
	"emerald": {"#ecfdf5", "#d1fae5", "#a7f3d0", "#6ee7b7", "#34d399", "#10b981", "#059669", "#047857", "#065f46", "#064e3b", "#022c22"},
	"teal":    {"#f0fdfa", "#ccfbf1", "#99f6e4", "#5eead4", "#2dd4bf", "#14b8a6", "#0d9488", "#0f766e", "#115e59", "#134e4a", "#042f2e"},
	"cyan":    {"#ecfeff", "#cffafe", "#a5f3fc", "#67e8f9", "#22d3ee", "#06b6d4", "#0891b2", "#0e7490", "#155e75", "#164e63", "#083344"},
	"sky":     {"#f0f9ff", "#e0f2fe", "#bae6fd", "#7dd3fc", "#38bdf8", "#0ea5e9", "#0284c7", "#0369a1", "#075985", "#0c4a6e", "#082f49"},
	"blue":    {"#eff6ff", "#dbeafe", "#bfdbfe", "#93c5fd", "#60a5fa", "#3b82f6", "#2563eb", "#1d4ed8", "#1e40af", "#1e3a8a", "#172554"},
	"indigo":  {"#eef2ff", "#e0e7ff", "#c7d2fe", "#a5b4fc", "#818cf8", "#6366f1", "#4f46e5", "#4338ca", "#3730a3", "#312e81", "#1e1b4b"},
	"violet":  {"#f5f3ff", "#ede9fe", "#ddd6fe", "#c4b5fd", "#a78bfa", "#8b5cf6", "#7c3aed", "#6d28d9", "#5b21b6", "#4c1d95", "#2e1065"},
	"purple":  {"#faf5ff", "#f3e8ff", "#e9d5ff", "#d8b4fe", "#c084fc", "#a855f7", "#9333ea", "#7e22ce", "#6b21a8", "#581c87", "#3b0764"},
	"pink":    {"#fdf2f8", "#fce7f3", "#fbcfe8", "#f9a8d4", "#f472b6", "#ec4899", "#db2777", "#be185d", "#9d174d", "#831843", "#500724"},
	"rose":    {"#fff1f2", "#ffe4e6", "#fecdd3", "#fda4af", "#fb7185", "#f43f5e", "#e11d48", "#be123c", "#9f1239", "#881337", "#4c0519"},
}

// themeTokens are the CSS custom properties design-system templates
// declare on :root; utilities reference them through hsl(var(--X)).
var themeTokens = []string{
	"background", "foreground",
	"card", "card-foreground",
	"popover", "popover-foreground",
	"primary", "primary-foreground",
	"secondary", "secondary-foreground",
	"muted", "muted-foreground",
	"accent", "accent-foreground",
	"destructive", "destructive-foreground",
	"border", "input", "ring",
}

// textSizes pairs font-size with line-height.
var textSizes = map[string][2]string{
	"xs": {"0.75rem", "1rem"}, "sm": {"0.875rem", "1.25rem"},
	"base": {"1rem", "1.5rem"}, "lg": {"1.125rem", "1.75rem"},
	"xl": {"1.25rem", "1.75rem"}, "2xl": {"1.5rem", "2rem"},
	"3xl": {"1.875rem", "2.25rem"}, "4xl": {"2.25rem", "2.5rem"},
	"5xl": {"3rem", "1"}, "6xl": {"3.75rem", "1"}, "7xl": {"4.5rem", "1"},
}

var fontWeights = map[string]string{
	"thin": "100", "extralight": "200", "light": "300", "normal": "400",
	"medium": "500", "semibold": "600", "bold": "700", "extrabold": "800",
	"black": "900",
}

var letterSpacings = map[string]string{
	"tighter": "-0.05em", "tight": "-0.025em", "normal": "0em",
	"wide": "0.025em", "wider": "0.05em", "widest": "0.1em",
}

var lineHeights = map[string]string{
	"none": "1", "tight": "1.25", "snug": "1.375", "normal": "1.5",
	"relaxed": "1.625", "loose": "2",
	"3": "0.75rem", "4": "1rem", "5": "1.25rem", "6": "1.5rem",
	"7": "1.75rem", "8": "2rem", "9": "2.25rem", "10": "2.5rem",
}

var radiusScale = map[string]string{
	"none": "0px", "sm": "0.125rem", "": "0.25rem", "md": "0.375rem",
	"lg": "0.5rem", "xl": "0.75rem", "2xl": "1rem", "3xl": "1.5rem",
	"full": "9999px",
}

// radiusSides maps side suffixes to the border-radius properties they
// set.
var radiusSides = map[string][]string{
	"t":  {"border-top-left-radius", "border-top-right-radius"},
	"r":  {"border-top-right-radius", "border-bottom-right-radius"},
	"b":  {"border-bottom-left-radius", "border-bottom-right-radius"},
	"l":  {"border-top-left-radius", "border-bottom-left-radius"},
	"tl": {"border-top-left-radius"},
	"tr": {"border-top-right-radius"},
	"bl": {"border-bottom-left-radius"},
	"br": {"border-bottom-right-radius"},
}

var borderWidths = map[string]string{
	"": "1px", "0": "0px", "2": "2px", "4": "4px", "8": "8px",
}

var borderSides = map[string]string{
	"t": "border-top-width", "r": "border-right-width",
	"b": "border-bottom-width", "l": "border-left-width",
}

var shadows = map[string]string{
	"sm":    "0 1px 2px 0 rgb(0 0 0 / 0.05)",
	"":      "0 1px 3px 0 rgb(0 0 0 / 0.1), 0 1px 2px -1px rgb(0 0 0 / 0.1)",
	"md":    "0 4px 6px -1px rgb(0 0 0 / 0.1), 0 2px 4px -2px rgb(0 0 0 / 0.1)",
	"lg":    "0 10px 15px -3px rgb(0 0 0 / 0.1), 0 4px 6px -4px rgb(0 0 0 / 0.1)",
	"xl":    "0 20px 25px -5px rgb(0 0 0 / 0.1), 0 8px 10px -6px rgb(0 0 0 / 0.1)",
	"2xl":   "0 25px 50px -12px rgb(0 0 0 / 0.25)",
	"inner": "inset 0 2px 4px 0 rgb(0 0 0 / 0.05)",
	"none":  "0 0 #0000",
}

var opacitySteps = []string{"0", "5", "10", "20", "25", "30", "40", "50", "60", "70", "75", "80", "90", "95", "100"}

var durationSteps = []string{"75", "100", "150", "200", "300", "500", "700", "1000"}

var scaleSteps = map[string]string{
	"0": "0", "50": ".5", "75": ".75", "90": ".9", "95": ".95",
	"100": "1", "105": "1.05", "110": "1.1", "125": "1.25", "150": "1.5",
}

var maxWidths = map[string]string{
	"xs": "20rem", "sm": "24rem", "md": "28rem", "lg": "32rem",
	"xl": "36rem", "2xl": "42rem", "3xl": "48rem", "4xl": "56rem",
	"5xl": "64rem", "6xl": "72rem", "7xl": "80rem",
	"none": "none", "full": "100%", "min": "min-content",
	"max": "max-content", "fit": "fit-content", "prose": "65ch",
	"screen-sm": "640px", "screen-md": "768px", "screen-lg": "1024px",
	"screen-xl": "1280px", "screen-2xl": "1536px",
}

var animations = map[string]struct{ Body, Keyframes string }{
	"spin": {
		Body:      "animation: spin 1s linear infinite;",
		Keyframes: "@keyframes spin { to { transform: rotate(360deg); } }",
	},
	"ping": {
		Body:      "animation: ping 1s cubic-bezier(0, 0, 0.2, 1) infinite;",
		Keyframes: "@keyframes ping { 75%, 100% { transform: scale(2); opacity: 0; } }",
	},
	"pulse": {
		Body:      "animation: pulse 2s cubic-bezier(0.4, 0, 0.6, 1) infinite;",
		Keyframes: "@keyframes pulse { 50% { opacity: .5; } }",
	},
	"bounce": {
		Body:      "animation: bounce 1s infinite;",
		Keyframes: "@keyframes bounce { 0%, 100% { transform: translateY(-25%); animation-timing-function: cubic-bezier(0.8, 0, 1, 1); } 50% { transform: none; animation-timing-function: cubic-bezier(0, 0, 0.2, 1); } }",
	},
	"none": {Body: "animation: none;"},
}

// staticUtilities are the fixed single-purpose rules with no scale
// behind them.
var staticUtilities = map[string]string{
	"block": "display: block;", "inline-block": "display: inline-block;",
	"inline": "display: inline;", "flex": "display: flex;",
	"inline-flex": "display: inline-flex;", "grid": "display: grid;",
	"inline-grid": "display: inline-grid;", "hidden": "display: none;",
	"table": "display: table;", "contents": "display: contents;",
	"flow-root": "display: flow-root;", "isolate": "isolation: isolate;",

	"static": "position: static;", "fixed": "position: fixed;",
	"absolute": "position: absolute;", "relative": "position: relative;",
	"sticky": "position: sticky;",

	"inset-0":  "top: 0px; right: 0px; bottom: 0px; left: 0px;",
	"top-auto": "top: auto;", "right-auto": "right: auto;",
	"bottom-auto": "bottom: auto;", "left-auto": "left: auto;",

	"flex-row": "flex-direction: row;", "flex-row-reverse": "flex-direction: row-reverse;",
	"flex-col": "flex-direction: column;", "flex-col-reverse": "flex-direction: column-reverse;",
	"flex-wrap": "flex-wrap: wrap;", "flex-wrap-reverse": "flex-wrap: wrap-reverse;",
	"flex-nowrap": "flex-wrap: nowrap;",
	"flex-1":      "flex: 1 1 0%;", "flex-auto": "flex: 1 1 auto;",
	"flex-initial": "flex: 0 1 auto;", "flex-none": "flex: none;",
	"grow": "flex-grow: 1;", "grow-0": "flex-grow: 0;",
	"shrink": "flex-shrink: 1;", "shrink-0": "flex-shrink: 0;",

	"items-start": "align-items: flex-start;", "items-end": "align-items: flex-end;",
	"items-center": "align-items: center;", "items-baseline": "align-items: baseline;",
	"items-stretch": "align-items: stretch;",
	"justify-start": "justify-content: flex-start;", "justify-end": "justify-content: flex-end;",
	"justify-center": "justify-content: center;", "justify-between": "justify-content: space-between;",
	"justify-around": "justify-content: space-around;", "justify-evenly": "justify-content: space-evenly;",
	"self-auto": "align-self: auto;", "self-start": "align-self: flex-start;",
	"self-end": "align-self: flex-end;", "self-center": "align-self: center;",
	"self-stretch": "align-self: stretch;",
	"content-center": "align-content: center;", "content-start": "align-content: flex-start;",
	"content-end": "align-content: flex-end;", "content-between": "align-content: space-between;",
	"place-items-center": "place-items: center;",
	"place-content-center": "place-content: center;",

	"text-left": "text-align: left;", "text-center": "text-align: center;",
	"text-right": "text-align: right;", "text-justify": "text-align: justify;",
	"underline": "text-decoration-line: underline;", "overline": "text-decoration-line: overline;",
	"line-through": "text-decoration-line: line-through;", "no-underline": "text-decoration-line: none;",
	"uppercase": "text-transform: uppercase;", "lowercase": "text-transform: lowercase;",
	"capitalize": "text-transform: capitalize;", "normal-case": "text-transform: none;",
	"italic": "font-style: italic;", "not-italic": "font-style: normal;",
	"antialiased": "-webkit-font-smoothing: antialiased; -moz-osx-font-smoothing: grayscale;",
	"truncate":    "overflow: hidden; text-overflow: ellipsis; white-space: nowrap;",
	"text-ellipsis": "text-overflow: ellipsis;", "text-clip": "text-overflow: clip;",
	"text-nowrap": "white-space: nowrap;",
	"whitespace-normal": "white-space: normal;", "whitespace-nowrap": "white-space: nowrap;",
	"whitespace-pre": "white-space: pre;", "whitespace-pre-line": "white-space: pre-line;",
	"whitespace-pre-wrap": "white-space: pre-wrap;",
	"break-normal": "overflow-wrap: normal; word-break: normal;",
	"break-words": "overflow-wrap: break-word;", "break-all": "word-break: break-all;",

	"font-sans": "font-family: ui-sans-serif, system-ui, -apple-system, sans-serif;",
	"font-serif": "font-family: ui-serif, Georgia, serif;",
	"font-mono": "font-family: ui-monospace, SFMono-Regular, Menlo, monospace;",

	"overflow-auto": "overflow: auto;", "overflow-hidden": "overflow: hidden;",
	"overflow-visible": "overflow: visible;", "overflow-scroll": "overflow: scroll;",
	"overflow-x-auto": "overflow-x: auto;", "overflow-y-auto": "overflow-y: auto;",
	"overflow-x-hidden": "overflow-x: hidden;", "overflow-y-hidden": "overflow-y: hidden;",
	"overflow-y-scroll": "overflow-y: scroll;",

	"object-contain": "object-fit: contain;", "object-cover": "object-fit: cover;",
	"object-fill": "object-fit: fill;", "object-none": "object-fit: none;",
	"object-scale-down": "object-fit: scale-down;", "object-center": "object-position: center;",

	"bg-cover": "background-size: cover;", "bg-contain": "background-size: contain;",
	"bg-center": "background-position: center;", "bg-no-repeat": "background-repeat: no-repeat;",
	"bg-fixed": "background-attachment: fixed;",

	"select-none": "user-select: none;", "select-text": "user-select: text;",
	"select-all": "user-select: all;", "select-auto": "user-select: auto;",
	"pointer-events-none": "pointer-events: none;", "pointer-events-auto": "pointer-events: auto;",
	"cursor-auto": "cursor: auto;", "cursor-default": "cursor: default;",
	"cursor-pointer": "cursor: pointer;", "cursor-wait": "cursor: wait;",
	"cursor-text": "cursor: text;", "cursor-move": "cursor: move;",
	"cursor-not-allowed": "cursor: not-allowed;", "cursor-grab": "cursor: grab;",
	"appearance-none": "appearance: none;",
	"outline-none":    "outline: 2px solid transparent; outline-offset: 2px;",
	"resize-none":     "resize: none;", "resize": "resize: both;",

	"list-none": "list-style-type: none;", "list-disc": "list-style-type: disc;",
	"list-decimal": "list-style-type: decimal;",
	"list-inside": "list-style-position: inside;", "list-outside": "list-style-position: outside;",

	"sr-only":     "position: absolute; width: 1px; height: 1px; padding: 0; margin: -1px; overflow: hidden; clip: rect(0, 0, 0, 0); white-space: nowrap; border-width: 0;",
	"not-sr-only": "position: static; width: auto; height: auto; padding: 0; margin: 0; overflow: visible; clip: auto; white-space: normal;",

	"w-full": "width: 100%;", "w-screen": "width: 100vw;", "w-auto": "width: auto;",
	"w-min": "width: min-content;", "w-max": "width: max-content;", "w-fit": "width: fit-content;",
	"w-1/2": "width: 50%;", "w-1/3": "width: 33.333333%;", "w-2/3": "width: 66.666667%;",
	"w-1/4": "width: 25%;", "w-3/4": "width: 75%;",
	"h-full": "height: 100%;", "h-screen": "height: 100vh;", "h-auto": "height: auto;",
	"min-h-0": "min-height: 0px;", "min-h-full": "min-height: 100%;",
	"min-h-screen": "min-height: 100vh;",
	"min-w-0": "min-width: 0px;", "min-w-full": "min-width: 100%;",
	"max-h-full": "max-height: 100%;", "max-h-screen": "max-height: 100vh;",
	"max-w-full": "max-width: 100%;",

	"m-auto": "margin: auto;", "mx-auto": "margin-left: auto; margin-right: auto;",
	"my-auto": "margin-top: auto; margin-bottom: auto;",
	"mt-auto": "margin-top: auto;", "mr-auto": "margin-right: auto;",
	"mb-auto": "margin-bottom: auto;", "ml-auto": "margin-left: auto;",

	"aspect-auto": "aspect-ratio: auto;", "aspect-square": "aspect-ratio: 1 / 1;",
	"aspect-video": "aspect-ratio: 16 / 9;",

	"border-solid": "border-style: solid;", "border-dashed": "border-style: dashed;",
	"border-dotted": "border-style: dotted;", "border-double": "border-style: double;",
	"border-none": "border-style: none;",

	"transition":        "transition-property: color, background-color, border-color, text-decoration-color, fill, stroke, opacity, box-shadow, transform, filter, backdrop-filter; transition-timing-function: cubic-bezier(0.4, 0, 0.2, 1); transition-duration: 150ms;",
	"transition-all":    "transition-property: all; transition-timing-function: cubic-bezier(0.4, 0, 0.2, 1); transition-duration: 150ms;",
	"transition-colors": "transition-property: color, background-color, border-color, text-decoration-color, fill, stroke; transition-timing-function: cubic-bezier(0.4, 0, 0.2, 1); transition-duration: 150ms;",
	"transition-opacity": "transition-property: opacity; transition-timing-function: cubic-bezier(0.4, 0, 0.2, 1); transition-duration: 150ms;",
	"transition-shadow": "transition-property: box-shadow; transition-timing-function: cubic-bezier(0.4, 0, 0.2, 1); transition-duration: 150ms;",
	"transition-transform": "transition-property: transform; transition-timing-function: cubic-bezier(0.4, 0, 0.2, 1); transition-duration: 150ms;",
	"transition-none": "transition-property: none;",
	"ease-linear":     "transition-timing-function: linear;",
	"ease-in":         "transition-timing-function: cubic-bezier(0.4, 0, 1, 1);",
	"ease-out":        "transition-timing-function: cubic-bezier(0, 0, 0.2, 1);",
	"ease-in-out":     "transition-timing-function: cubic-bezier(0.4, 0, 0.2, 1);",

	"transform": "transform: translate(0, 0) rotate(0) scale(1);",
	"rotate-0": "transform: rotate(0deg);", "rotate-45": "transform: rotate(45deg);",
	"rotate-90": "transform: rotate(90deg);", "rotate-180": "transform: rotate(180deg);",

	"order-first": "order: -9999;", "order-last": "order: 9999;", "order-none": "order: 0;",

	"grid-flow-row": "grid-auto-flow: row;", "grid-flow-col": "grid-auto-flow: column;",
	"grid-cols-none": "grid-template-columns: none;",
	"col-auto": "grid-column: auto;", "col-span-full": "grid-column: 1 / -1;",
	"row-auto": "grid-row: auto;", "row-span-full": "grid-row: 1 / -1;",

	"ring": "box-shadow: 0 0 0 3px rgb(59 130 246 / 0.5);",
}

var zIndexes = []string{"0", "10", "20", "30", "40", "50"}

// buildUtilityTable crosses the data tables into the full class map.
func buildUtilityTable() map[string]cssRule {
	t := make(map[string]cssRule, 4096)
	add := func(name, body string) {
		t[name] = cssRule{Body: body}
	}

	for name, body := range staticUtilities {
		add(name, body)
	}

	for key, size := range spacingScale {
		add("p-"+key, "padding: "+size+";")
		add("px-"+key, "padding-left: "+size+"; padding-right: "+size+";")
		add("py-"+key, "padding-top: "+size+"; padding-bottom: "+size+";")
		add("pt-"+key, "padding-top: "+size+";")
		add("pr-"+key, "padding-right: "+size+";")
		add("pb-"+key, "padding-bottom: "+size+";")
		add("pl-"+key, "padding-left: "+size+";")

		add("m-"+key, "margin: "+size+";")
		add("mx-"+key, "margin-left: "+size+"; margin-right: "+size+";")
		add("my-"+key, "margin-top: "+size+"; margin-bottom: "+size+";")
		add("mt-"+key, "margin-top: "+size+";")
		add("mr-"+key, "margin-right: "+size+";")
		add("mb-"+key, "margin-bottom: "+size+";")
		add("ml-"+key, "margin-left: "+size+";")

		add("-m-"+key, "margin: -"+size+";")
		add("-mt-"+key, "margin-top: -"+size+";")
		add("-mr-"+key, "margin-right: -"+size+";")
		add("-mb-"+key, "margin-bottom: -"+size+";")
		add("-ml-"+key, "margin-left: -"+size+";")

		add("gap-"+key, "gap: "+size+";")
		add("gap-x-"+key, "column-gap: "+size+";")
		add("gap-y-"+key, "row-gap: "+size+";")

		add("w-"+key, "width: "+size+";")
		add("h-"+key, "height: "+size+";")
		add("size-"+key, "width: "+size+"; height: "+size+";")
		add("max-h-"+key, "max-height: "+size+";")

		add("top-"+key, "top: "+size+";")
		add("right-"+key, "right: "+size+";")
		add("bottom-"+key, "bottom: "+size+";")
		add("left-"+key, "left: "+size+";")
		add("inset-"+key, "top: "+size+"; right: "+size+"; bottom: "+size+"; left: "+size+";")

		add("translate-x-"+key, "transform: translateX("+size+");")
		add("translate-y-"+key, "transform: translateY("+size+");")

		t["space-x-"+key] = cssRule{Suffix: " > * + *", Body: "margin-left: " + size + ";"}
		t["space-y-"+key] = cssRule{Suffix: " > * + *", Body: "margin-top: " + size + ";"}
	}
	t["divide-y"] = cssRule{Suffix: " > * + *", Body: "border-top-width: 1px;"}
	t["divide-x"] = cssRule{Suffix: " > * + *", Body: "border-left-width: 1px;"}

	addColor := func(name, value string) {
		add("bg-"+name, "background-color: "+value+";")
		add("text-"+name, "color: "+value+";")
		add("border-"+name, "border-color: "+value+";")
	}
	for family, shades := range colorPalette {
		for i, hex := range shades {
			addColor(family+"-"+colorShadeNames[i], hex)
		}
	}
	addColor("white", "#ffffff")
	addColor("black", "#000000")
	addColor("transparent", "transparent")
	addColor("current", "currentColor")
	addColor("inherit", "inherit")
	for _, tok := range themeTokens {
		addColor(tok, "hsl(var(--"+tok+"))")
	}

	for name, pair := range textSizes {
		add("text-"+name, "font-size: "+pair[0]+"; line-height: "+pair[1]+";")
	}
	for name, weight := range fontWeights {
		add("font-"+name, "font-weight: "+weight+";")
	}
	for name, v := range letterSpacings {
		add("tracking-"+name, "letter-spacing: "+v+";")
	}
	for name, v := range lineHeights {
		add("leading-"+name, "line-height: "+v+";")
	}

	for suffix, radius := range radiusScale {
		name := "rounded"
		if suffix != "" {
			name += "-" + suffix
		}
		add(name, "border-radius: "+radius+";")
		for side, props := range radiusSides {
			sideName := "rounded-" + side
			if suffix != "" {
				sideName += "-" + suffix
			}
			body := ""
			for _, p := range props {
				body += p + ": " + radius + "; "
			}
			add(sideName, body[:len(body)-1])
		}
	}

	for suffix, width := range borderWidths {
		name := "border"
		if suffix != "" {
			name += "-" + suffix
		}
		add(name, "border-width: "+width+";")
		for side, prop := range borderSides {
			sideName := "border-" + side
			if suffix != "" {
				sideName += "-" + suffix
			}
			add(sideName, prop+": "+width+";")
		}
	}

	for suffix, shadow := range shadows {
		name := "shadow"
		if suffix != "" {
			name += "-" + suffix
		}
		add(name, "box-shadow: "+shadow+";")
	}
	for _, n := range []string{"0", "1", "2", "4", "8"} {
		px := n + "px"
		add("ring-"+n, "box-shadow: 0 0 0 "+px+" rgb(59 130 246 / 0.5);")
	}

	for _, step := range opacitySteps {
		var v string
		switch {
		case step == "0":
			v = "0"
		case step == "100":
			v = "1"
		case len(step) == 1:
			v = "0.0" + step
		default:
			v = strings.TrimSuffix("0."+step, "0")
		}
		add("opacity-"+step, "opacity: "+v+";")
	}

	for _, z := range zIndexes {
		add("z-"+z, "z-index: "+z+";")
	}
	add("z-auto", "z-index: auto;")

	for i := 1; i <= 12; i++ {
		n := strconv.Itoa(i)
		add("grid-cols-"+n, "grid-template-columns: repeat("+n+", minmax(0, 1fr));")
		add("col-span-"+n, "grid-column: span "+n+" / span "+n+";")
		add("order-"+n, "order: "+n+";")
		if i <= 6 {
			add("grid-rows-"+n, "grid-template-rows: repeat("+n+", minmax(0, 1fr));")
			add("row-span-"+n, "grid-row: span "+n+" / span "+n+";")
		}
	}

	for _, d := range durationSteps {
		add("duration-"+d, "transition-duration: "+d+"ms;")
		add("delay-"+d, "transition-delay: "+d+"ms;")
	}
	for step, factor := range scaleSteps {
		add("scale-"+step, "transform: scale("+factor+");")
	}
	for name, size := range maxWidths {
		add("max-w-"+name, "max-width: "+size+";")
	}
	for name, anim := range animations {
		t["animate-"+name] = cssRule{Body: anim.Body, Keyframes: anim.Keyframes}
	}

	return t
}
