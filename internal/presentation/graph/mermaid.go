package graph

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/route"
)

// GraphOverlay marks routes taken by one request.
type GraphOverlay struct {
	VisitedRoutes []string // "group/route"
	CurrentRoute  string
}

// GenerateMermaid produces a Mermaid flowchart of routes and their exit targets.
// Shapes:
// - Protected by a permission: {{Hexagon}}
// - Non-GET method: [/Parallelogram/]
// - Default: [Rectangle]
// Rewrites are solid arrows, redirects dotted. Arrows leaving the group are labelled with the mode.
func GenerateMermaid(routes []route.Info, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, r := range routes {
		id := r.Group + "/" + r.Name
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case r.Permission != "":
			opener, closer = "{{", "}}"
		case r.Method != http.MethodGet:
			opener, closer = "[/", "/]"
		}

		label := id
		if r.Method != http.MethodGet {
			label = r.Method + " " + id
		}
		if r.Permission != "" {
			label += " <br/> " + r.Permission
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		for _, exit := range r.Exits {
			mode, target, _ := strings.Cut(exit, " ")
			to, ok := RouteID(target)
			if !ok {
				continue
			}
			safeTo := sanitizeMermaidID(to)

			var arrow string
			switch mode {
			case domain.ModeRewrite.String():
				arrow = "-->"
				if !sameGroup(id, to) {
					arrow = `-- "rewrite" -->`
				}
			case domain.ModeRedirect.String():
				arrow = "-.->"
				if !sameGroup(id, to) {
					arrow = `-. "redirect" .->`
				}
			default:
				continue
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, safeTo)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedRoutes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentRoute != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentRoute))
		}
	}

	return sb.String()
}

// RouteID extracts "group/route" from a local target path.
func RouteID(target string) (string, bool) {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "", false
	}
	target, _, _ = strings.Cut(target, "?")
	parts := strings.Split(strings.Trim(target, "/"), "/")
	if len(parts) < 2 {
		return "", false
	}
	return parts[0] + "/" + parts[1], true
}

func sameGroup(a, b string) bool {
	ga, _, _ := strings.Cut(a, "/")
	gb, _, _ := strings.Cut(b, "/")
	return ga == gb
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
