package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aretw0/leynos"
	"github.com/aretw0/leynos/pkg/controller"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/observability"
	"github.com/aretw0/leynos/pkg/route"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	echo = controller.Of(controller.Func(func(_ context.Context, x *controller.Exchange) (int, error) {
		x.SetAll(x.Inputs())
		return domain.ExitSuccess, nil
	}))
	login = controller.Of(controller.Func(func(ctx context.Context, x *controller.Exchange) (int, error) {
		if err := x.Session.Set(ctx, "user", x.String("user")); err != nil {
			return 0, err
		}
		return domain.ExitSuccess, nil
	}))
	upload = controller.Of(controller.Func(func(_ context.Context, x *controller.Exchange) (int, error) {
		names := make([]string, 0, len(x.Request.Files))
		for _, f := range x.Request.Files {
			names = append(names, f.Field+":"+f.Name)
		}
		x.Set("files", names)
		return domain.ExitSuccess, nil
	}))
)

func newServer(t *testing.T, opts ...Option) (http.Handler, *observability.Metrics) {
	t.Helper()

	group := func() *route.Group {
		g := route.NewGroup()
		g.Add(
			route.New("hello", route.NewSlice(echo).StoreInput(domain.StoreRequest, route.Key("name"))),
			route.New("login", route.NewSlice(login).
				StoreInput(domain.StoreRequest, route.Key("user")).
				Exit(domain.Redirect(domain.ExitSuccess, "/app/whoami"))).Method(http.MethodPost),
			route.New("whoami", route.NewSlice(echo).StoreInput(domain.StoreSession, route.Key("user"))),
			route.New("upload", route.NewSlice(upload)).Method(http.MethodPost),
		)
		return g
	}

	opts0 := domain.DefaultOptions()
	opts0.SessionRequired = false

	metrics := observability.NewMetrics()
	k, err := leynos.New(map[string]route.GroupFactory{"app": group},
		leynos.WithOptions(opts0),
		leynos.WithLifecycleHooks(metrics.Hooks()),
	)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))

	opts = append([]Option{WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))}, opts...)
	return NewHandler(k, opts...), metrics
}

func TestServer_DispatchJSON(t *testing.T) {
	h, _ := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/app/hello/json?name=%3Cb%3Ebob%3C/b%3E", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"name":"bob"}`, w.Body.String())
}

func TestServer_NotFound(t *testing.T) {
	h, _ := newServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope/nothing/json", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, leynos.FallbackBody, w.Body.String())
}

func TestServer_SessionCookieAndRedirect(t *testing.T) {
	h, _ := newServer(t)

	form := url.Values{"user": {"alice"}}
	req := httptest.NewRequest(http.MethodPost, "/app/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/app/whoami", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultSessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/app/whoami/json", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"alice"}`, w.Body.String())
	assert.Empty(t, w.Result().Cookies(), "an existing session is not reissued")
}

func TestServer_ForgedSessionIsReplaced(t *testing.T) {
	h, _ := newServer(t)

	form := url.Values{"user": {"mallory"}}
	req := httptest.NewRequest(http.MethodPost, "/app/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: "chosen-by-attacker"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "chosen-by-attacker", cookies[0].Value)
}

func TestServer_Upload(t *testing.T) {
	h, _ := newServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("report", "q1.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/app/upload/json", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"files":["report:q1.csv"]}`, w.Body.String())
}

func TestServer_RejectsOversizedInput(t *testing.T) {
	h, _ := newServer(t)

	q := url.Values{"name": {strings.Repeat("x", DefaultMaxInputSize+1)}}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app/hello/json?"+q.Encode(), nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_BodyLimit(t *testing.T) {
	h, _ := newServer(t, WithMaxBodyBytes(16))

	form := url.Values{"user": {strings.Repeat("y", 64)}}
	req := httptest.NewRequest(http.MethodPost, "/app/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	h, _ := newServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/app/hello/json", nil))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `leynos_requests_total{group="app",mode="json",route="hello",status="200"} 1`)
}

func TestResponseWriter_HeadersBeforeBody(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{w: rec, server: &Server{cookie: "sid"}, status: http.StatusOK}

	rw.Status(http.StatusTeapot)
	rw.ContentDisposition("report 1.csv")
	rw.Set("X-Test", "1")
	_, err := rw.Write([]byte("body"))
	require.NoError(t, err)
	rw.Status(http.StatusOK)
	rw.finish()

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, `attachment; filename="report 1.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "1", rec.Header().Get("X-Test"))
}
