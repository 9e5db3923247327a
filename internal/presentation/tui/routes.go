package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/leynos/internal/runtime"
	"github.com/aretw0/leynos/pkg/route"
	"github.com/muesli/termenv"
)

// RoutesMarkdown renders the route table as a markdown document.
func RoutesMarkdown(routes []route.Info) string {
	var sb strings.Builder
	sb.WriteString("# Routes\n\n")
	if len(routes) == 0 {
		sb.WriteString("_No routes defined._\n")
		return sb.String()
	}

	sb.WriteString("| Method | Path | Aliases | Permission | Slices | Template | Exits |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")
	for _, r := range routes {
		fmt.Fprintf(&sb, "| %s | `%s` | %s | %s | %d | %s | %s |\n",
			r.Method,
			r.Path(),
			cell(strings.Join(r.Aliases, ", ")),
			cell(r.Permission),
			r.Slices,
			cell(r.Template),
			cell(strings.Join(r.Exits, "<br>")),
		)
	}
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

// PrintResolution writes a colored summary of a resolved path.
func PrintResolution(w io.Writer, res *runtime.Resolution) {
	p := termenv.ColorProfile()
	key := func(s string) termenv.Style { return termenv.String(fmt.Sprintf("%-10s", s)).Foreground(p.Color("#818cf8")) }

	fmt.Fprintf(w, "%s %s\n", key("path"), res.Path)
	fmt.Fprintf(w, "%s %s\n", key("group"), res.GroupName)
	fmt.Fprintf(w, "%s %s", key("route"), res.Route.Name())
	if res.Route.Name() != res.RouteName {
		fmt.Fprintf(w, " %s", termenv.String("(alias "+res.RouteName+")").Faint())
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", key("method"), res.Method)
	fmt.Fprintf(w, "%s %s\n", key("mode"), res.Mode)
	if token, ok := res.Route.PermissionToken(); ok {
		fmt.Fprintf(w, "%s %s\n", key("permission"), termenv.String(token).Foreground(p.Color("#fb7185")))
	}
	fmt.Fprintf(w, "%s %d\n", key("slices"), len(res.Group.Chain(res.Route)))

	opts := map[string]bool{
		"connect_database":       res.Options.ConnectDatabase,
		"session_required":       res.Options.SessionRequired,
		"enable_template_engine": res.Options.EnableTemplateEngine,
		"routing_cache":          res.Options.RoutingCache,
	}
	names := make([]string, 0, len(opts))
	for n := range opts {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		mark := termenv.String("off").Faint()
		if opts[n] {
			mark = termenv.String("on").Foreground(p.Color("#34d399"))
		}
		fmt.Fprintf(w, "  %-24s %s\n", n, mark)
	}
	if res.Options.LoginRoute != "" {
		fmt.Fprintf(w, "  %-24s %s\n", "login_route", res.Options.LoginRoute)
	}
}
