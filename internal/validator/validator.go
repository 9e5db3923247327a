// Package validator checks that the exits of every route lead somewhere.
package validator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/leynos/internal/runtime"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/route"
)

// Resolver resolves a request path to a route.
type Resolver interface {
	Resolve(ctx context.Context, path, method string) (*runtime.Resolution, error)
}

// TemplateSet reports whether a template exists.
type TemplateSet interface {
	Has(name string) bool
}

// ValidateRoutes checks every exit target of routes: rewrite targets must
// resolve with the route's method, local redirect targets must resolve with GET
// and render targets must name a known template when templates is not nil.
// All problems are reported together.
func ValidateRoutes(ctx context.Context, res Resolver, routes []route.Info, templates TemplateSet) error {
	var problems []string

	for _, r := range routes {
		if r.Template != "" && templates != nil && !templates.Has(r.Template) {
			problems = append(problems, fmt.Sprintf("%s: missing default template %q", r.Path(), r.Template))
		}

		for _, exit := range r.Exits {
			mode, target, _ := strings.Cut(exit, " ")
			switch mode {
			case domain.ModeRewrite.String():
				if _, err := res.Resolve(ctx, target, r.Method); err != nil {
					problems = append(problems, fmt.Sprintf("%s: rewrite to %s: %v", r.Path(), target, err))
				}
			case domain.ModeRedirect.String():
				if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
					continue
				}
				path, _, _ := strings.Cut(target, "?")
				if _, err := res.Resolve(ctx, path, http.MethodGet); err != nil {
					problems = append(problems, fmt.Sprintf("%s: redirect to %s: %v", r.Path(), target, err))
				}
			case domain.ModeRender.String():
				if templates != nil && !templates.Has(target) {
					problems = append(problems, fmt.Sprintf("%s: missing template %q", r.Path(), target))
				}
			}
		}
	}

	if len(problems) > 0 {
		return errors.New("found issues:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}
