package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/leynos/internal/presentation/graph"
	"github.com/aretw0/leynos/pkg/route"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		routes   []route.Info
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes",
			routes: []route.Info{
				{Group: "shop", Name: "list", Method: "GET"},
				{Group: "shop", Name: "buy", Method: "POST"},
				{Group: "shop", Name: "admin", Method: "GET", Permission: "ADMIN"},
			},
			contains: []string{
				`shop_list["shop/list"]`,
				`shop_buy[/"POST shop/buy"/]`,
				`shop_admin{{"shop/admin <br/> ADMIN"}}`,
			},
		},
		{
			name: "ID Sanitization",
			routes: []route.Info{
				{Group: "my-shop", Name: "v1.list", Method: "GET"},
			},
			contains: []string{`my_shop_v1_list["my-shop/v1.list"]`},
		},
		{
			name: "Exit Edges",
			routes: []route.Info{
				{Group: "shop", Name: "buy", Method: "POST", Exits: []string{
					"redirect /shop/list?ok=1",
					"rewrite /shop/error/json",
					"redirect /auth/login",
					"redirect https://example.com/",
					"render receipt",
				}},
			},
			contains: []string{
				"shop_buy -.-> shop_list",
				"shop_buy --> shop_error",
				`shop_buy -. "redirect" .-> auth_login`,
			},
			excludes: []string{"example", "receipt"},
		},
		{
			name:   "Overlay",
			routes: []route.Info{{Group: "shop", Name: "list", Method: "GET"}},
			overlay: &graph.GraphOverlay{
				VisitedRoutes: []string{"shop/buy", "shop/buy"},
				CurrentRoute:  "shop/list",
			},
			contains: []string{"class shop_buy visited;", "class shop_list current;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.routes, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, bad)
				}
			}
			if tt.overlay != nil && strings.Count(got, "class shop_buy visited;") != 1 {
				t.Errorf("visited routes must be deduplicated:\n%v", got)
			}
		})
	}
}
