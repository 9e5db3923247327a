package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/route"
)

// Resolution is a request path resolved to a route, with the options in force for it.
type Resolution struct {
	Path      string
	GroupName string
	RouteName string
	Method    string
	Mode      domain.ResponseMode
	Group     *route.Group
	Route     *route.Route
	Options   domain.Options
}

// GroupCacheKey returns the cache key of a group.
func GroupCacheKey(name string) string {
	return GroupCachePrefix + name
}

// Resolve maps a request path and method to a route and applies the option cascade
// (base, then group overrides, then route overrides) to a copy of base.
func (e *Engine) Resolve(ctx context.Context, path, method string, base domain.Options) (*Resolution, error) {
	if path == e.rootMarker && e.rootRoute != "" {
		path = e.rootRoute
	}

	groupName, routeName, format, ok := e.match(path)
	if !ok {
		return nil, &domain.RoutingError{Path: path, Err: domain.ErrMalformedRequest}
	}
	if _, defined := e.groups[groupName]; !defined {
		return nil, &domain.RoutingError{Path: path, Err: domain.ErrUndefinedGroup}
	}

	group, err := e.group(ctx, groupName, base.RoutingCache)
	if err != nil {
		return nil, err
	}
	opts := base.Apply(group.Overrides())

	r, ok := group.Resolve(routeName, method)
	if !ok {
		return nil, &domain.RoutingError{Path: path, Err: domain.ErrUndefinedRoute}
	}
	opts = opts.Apply(r.Overrides())

	res := &Resolution{
		Path:      path,
		GroupName: groupName,
		RouteName: routeName,
		Method:    method,
		Mode:      domain.ParseResponseMode(format),
		Group:     group,
		Route:     r,
		Options:   opts,
	}

	if e.hooks.OnRouteResolved != nil {
		e.hooks.OnRouteResolved(ctx, &domain.RouteEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRouteResolved, RequestID: requestID(ctx)},
			Group:     groupName,
			Route:     r.Name(),
			Method:    method,
			Mode:      res.Mode,
		})
	}
	return res, nil
}

// Lookup finds the route a rewrite target path names. No options are applied and
// no permission or session checks happen here.
func (e *Engine) Lookup(ctx context.Context, path, method string, cached bool) (*route.Route, *route.Group, error) {
	groupName, routeName, _, ok := e.match(path)
	if !ok {
		return nil, nil, &domain.RoutingError{Path: path, Err: domain.ErrMalformedRequest}
	}
	if _, defined := e.groups[groupName]; !defined {
		return nil, nil, &domain.RoutingError{Path: path, Err: domain.ErrUndefinedGroup}
	}
	group, err := e.group(ctx, groupName, cached)
	if err != nil {
		return nil, nil, err
	}
	r, ok := group.Resolve(routeName, method)
	if !ok {
		return nil, nil, &domain.RoutingError{Path: path, Err: domain.ErrUndefinedRoute}
	}
	return r, group, nil
}

// match applies the routing pattern.
func (e *Engine) match(path string) (group, name, format string, ok bool) {
	m := e.pattern.FindStringSubmatch(path)
	if m == nil {
		return "", "", "", false
	}

	pick := func(named string, pos int) string {
		if i := e.pattern.SubexpIndex(named); i > 0 {
			return m[i]
		}
		if pos < len(m) {
			return m[pos]
		}
		return ""
	}

	group, name, format = pick("group", 1), pick("route", 2), pick("format", 3)
	if group == "" || name == "" {
		return "", "", "", false
	}
	return group, name, strings.TrimSpace(format), true
}

// group builds or fetches a group. Cache failures are logged and the group is built fresh.
func (e *Engine) group(ctx context.Context, name string, cached bool) (*route.Group, error) {
	factory := e.groups[name]
	if !cached {
		return build(name, factory)
	}

	key := GroupCacheKey(name)
	v, found, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("group cache read failed", "group", name, "err", err)
	} else if g, isGroup := v.(*route.Group); found && isGroup {
		return g, nil
	}

	g, err := build(name, factory)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, key, g); err != nil {
		e.logger.Warn("group cache write failed", "group", name, "err", err)
	}
	return g, nil
}

func build(name string, factory route.GroupFactory) (*route.Group, error) {
	g := factory()
	if g == nil {
		return nil, fmt.Errorf("group %q: factory returned nil", name)
	}
	return g, nil
}
