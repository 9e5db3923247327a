package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aretw0/leynos"
	"github.com/aretw0/leynos/pkg/controller"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/route"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	remember := controller.Of(controller.Func(func(ctx context.Context, x *controller.Exchange) (int, error) {
		return domain.ExitSuccess, x.Session.Set(ctx, "colour", x.String("colour"))
	}))
	echo := controller.Of(controller.Func(func(_ context.Context, x *controller.Exchange) (int, error) {
		x.SetAll(x.Inputs())
		return domain.ExitSuccess, nil
	}))

	group := func() *route.Group {
		return route.NewGroup().Add(
			route.New("remember", route.NewSlice(remember).StoreInput(domain.StoreRequest, route.Key("colour"))).
				Method(http.MethodPost),
			route.New("recall", route.NewSlice(echo).StoreInput(domain.StoreSession, route.Key("colour"))),
			route.New("away", route.NewSlice(echo).Exit(domain.Redirect(domain.ExitSuccess, "/prefs/recall"))),
		)
	}

	opts := domain.DefaultOptions()
	opts.SessionRequired = false
	k, err := leynos.New(map[string]route.GroupFactory{"prefs": group}, leynos.WithOptions(opts))
	require.NoError(t, err)
	return NewServer(k)
}

func TestDispatch_SessionRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"path":   "/prefs/remember/json",
		"method": "post",
		"params": `{"colour":"green"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	require.NotEmpty(t, res.SessionID)

	res, err = s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"path":       "/prefs/recall/json",
		"session_id": res.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, "recall", res.Route)
	assert.Equal(t, "json", res.Mode)
	assert.JSONEq(t, `{"colour":"green"}`, res.Body)
}

func TestDispatch_Redirect(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleDispatch(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"path": "/prefs/away",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/prefs/recall", res.Location)
	assert.Empty(t, res.SessionID)
}

func TestDispatch_BadArguments(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{name: "missing path", args: map[string]interface{}{}},
		{name: "params not an object", args: map[string]interface{}{"path": "/prefs/recall", "params": `[1,2]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleDispatch(context.Background(), mcp.CallToolRequest{}, tt.args)
			assert.Error(t, err)
		})
	}
}

func TestRoutesJSON(t *testing.T) {
	s := newTestServer(t)

	text, err := s.routesJSON()
	require.NoError(t, err)

	var routes []route.Info
	require.NoError(t, json.Unmarshal([]byte(text), &routes))

	names := make([]string, 0, len(routes))
	for _, r := range routes {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{"remember", "recall", "away"}, names)
}
