package leynos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/leynos/internal/runtime"
	"github.com/aretw0/leynos/pkg/adapters/memory"
	"github.com/aretw0/leynos/pkg/controller"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/persistence/middleware"
	"github.com/aretw0/leynos/pkg/ports"
	"github.com/aretw0/leynos/pkg/session"
	"github.com/aretw0/leynos/pkg/view"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

const textMime = "text/plain; charset=utf-8"

var errNoTemplateEngine = errors.New("no template engine configured")

// Result summarizes how a request was answered.
type Result struct {
	RequestID string
	Group     string
	Route     string
	Mode      domain.ResponseMode
	Status    int

	// Location is the redirect target when Status is 303.
	Location string

	// SessionID is the session the caller holds after the request.
	SessionID string

	// Rewrites lists the internal rewrites followed.
	Rewrites []string

	// Unmapped is set when the chain ended on an exit code with no exit state.
	Unmapped bool

	// Err is the failure that was rendered as an error page, if any.
	Err error
}

// dispatch carries the state of one request through the kernel.
type dispatch struct {
	k      *Kernel
	req    *domain.Request
	method string
	w      ports.ResponseWriter
	logger *slog.Logger
	res    *Result

	sess     *session.Session
	saved    bool
	identity domain.Identity
	data     map[string]any
}

// Dispatch answers one request. Every failure is rendered to w as an error page,
// so the returned Result is always usable.
func (k *Kernel) Dispatch(ctx context.Context, req *domain.Request, w ports.ResponseWriter) *Result {
	start := time.Now()

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	ctx = runtime.WithRequestID(ctx, id)
	method := normalizeMethod(req.Method)

	d := &dispatch{
		k:      k,
		req:    req,
		method: method,
		w:      w,
		logger: k.logger.With("request_id", id, "method", method, "path", req.Path),
		res: &Result{
			RequestID: id,
			Mode:      domain.ResponseHTML,
			Status:    http.StatusOK,
			SessionID: req.SessionID,
		},
		identity: domain.Anonymous(),
	}

	if err := d.run(ctx); err != nil {
		d.fail(ctx, err)
	}

	elapsed := time.Since(start)
	if k.hooks.OnResponse != nil {
		k.hooks.OnResponse(ctx, &domain.ResponseEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventResponse, RequestID: id},
			Group:     d.res.Group,
			Route:     d.res.Route,
			Mode:      d.res.Mode,
			Status:    d.res.Status,
			Duration:  elapsed,
		})
	}
	d.logger.Debug("request served", "status", d.res.Status, "duration", elapsed)
	return d.res
}

func (d *dispatch) run(ctx context.Context) error {
	k := d.k

	res, err := k.engine.Resolve(ctx, d.req.Path, d.method, k.options)
	if err != nil {
		return err
	}
	d.res.Group = res.GroupName
	d.res.Route = res.Route.Name()
	d.res.Mode = res.Mode
	opts := res.Options

	sess, err := k.sessions.Load(ctx, d.req.SessionID)
	if err != nil {
		return err
	}
	d.sess = sess
	d.res.SessionID = sess.ID()

	if k.auth != nil {
		identity, err := k.auth.Identify(ctx, sess)
		if err != nil {
			return fmt.Errorf("identify caller: %w", err)
		}
		d.identity = identity
	}

	if opts.SessionRequired && !d.identity.Authenticated {
		if opts.LoginRoute == "" {
			return &domain.RoutingError{Path: res.Path, Err: domain.ErrLoginRouteMissing}
		}
		d.logger.Info("login required", "login_route", opts.LoginRoute)
		return d.redirect(ctx, opts.LoginRoute)
	}

	if token, ok := res.Route.PermissionToken(); ok && !d.identity.Permissions.Has(token) {
		return &domain.UnauthorizedError{Token: token}
	}

	stores := d.stores()
	env := controller.Environment{
		Request:        d.req,
		DocumentRoot:   k.documentRoot,
		AcceptLanguage: d.req.AcceptLanguage,
		Languages:      controller.ParseLanguages(d.req.AcceptLanguage),
		Location:       k.location,
		Headers:        d.w,
		Session:        sess,
		Store:          stores[domain.StoreGlobal],
		Identity:       d.identity,
		Logger:         d.logger,
	}
	if opts.ConnectDatabase && k.databases != nil {
		handles := k.databases.Begin()
		defer func() {
			if err := handles.Close(); err != nil {
				d.logger.Warn("database release failed", "err", err)
			}
		}()
		env.Databases = handles
	}
	if opts.EnableTemplateEngine {
		env.Templates = k.templates
	}

	out, err := k.engine.Execute(ctx, runtime.Execution{
		Route:        res.Route,
		Group:        res.Group,
		Method:       d.method,
		Stores:       stores,
		Env:          env,
		RoutingCache: opts.RoutingCache,
	})
	d.res.Rewrites = out.Rewrites

	stored, serr := d.storedMessages(ctx)
	if err != nil {
		if serr == nil {
			serr = d.keepMessages(ctx, stored, out.Messages)
		}
		if serr != nil {
			d.logger.Error("messages of a failed chain were lost", "err", serr)
		}
		return err
	}
	if serr != nil {
		return serr
	}
	d.data = out.Data
	d.res.Unmapped = out.Unmapped

	if target, ok := out.Redirect(); ok {
		if err := d.keepMessages(ctx, stored, out.Messages); err != nil {
			return err
		}
		return d.redirect(ctx, target)
	}
	return d.render(ctx, out, stored)
}

// stores builds the memory stores slices bind against for this request.
// Local and global keys live under separate roots so neither can address the other.
func (d *dispatch) stores() runtime.Stores {
	k := d.k
	owner := d.identity.Namespace
	if owner == "" {
		owner = "session:" + d.sess.ID()
	}
	return runtime.Stores{
		domain.StoreRequest:  memory.NewStoreFrom(d.req.Params),
		domain.StoreSession:  d.sess,
		domain.StoreLocal:    middleware.Namespace(k.cacheNamespace + ":local:" + url.QueryEscape(owner))(k.store),
		domain.StoreGlobal:   middleware.Namespace(k.cacheNamespace + ":global")(k.store),
		domain.StoreVolatile: memory.NewStore(),
	}
}

// storedMessages reads messages left in the session by earlier requests.
func (d *dispatch) storedMessages(ctx context.Context) ([]domain.Message, error) {
	raw, ok, err := d.sess.Get(ctx, domain.KeyMessages)
	if err != nil {
		return nil, fmt.Errorf("read session messages: %w", err)
	}
	if !ok || raw == nil {
		return nil, nil
	}
	if msgs, typed := raw.([]domain.Message); typed {
		return msgs, nil
	}
	var msgs []domain.Message
	if err := mapstructure.Decode(raw, &msgs); err != nil {
		return nil, fmt.Errorf("decode session messages: %w", err)
	}
	return msgs, nil
}

// keepMessages appends fresh messages to the session stack until an HTML page shows them.
func (d *dispatch) keepMessages(ctx context.Context, stored, fresh []domain.Message) error {
	if len(fresh) == 0 {
		return nil
	}
	all := make([]domain.Message, 0, len(stored)+len(fresh))
	all = append(all, stored...)
	all = append(all, fresh...)
	return d.sess.Set(ctx, domain.KeyMessages, all)
}

func (d *dispatch) render(ctx context.Context, out *runtime.Outcome, stored []domain.Message) error {
	var (
		buf         bytes.Buffer
		ctype       string
		disposition string
	)
	data := out.Data
	mode := d.res.Mode

	switch {
	case mode == domain.ResponseJSON:
		if err := d.keepMessages(ctx, stored, out.Messages); err != nil {
			return err
		}
		if err := (view.JSON{}).Render(&buf, data); err != nil {
			return fmt.Errorf("render json: %w", err)
		}
		ctype = view.JSONMime

	case mode.IsBinary():
		if err := d.keepMessages(ctx, stored, out.Messages); err != nil {
			return err
		}
		if out.Binary == nil {
			return &domain.ControllerFailureError{Message: fmt.Sprintf("no %s view was produced", mode)}
		}
		if err := out.Binary.Render(&buf, data); err != nil {
			return fmt.Errorf("render %s: %w", mode, err)
		}
		ctype = out.Binary.MIMEType()
		disposition = out.Binary.FileName()

	default:
		if out.Template == "" || d.k.templates == nil {
			// Nothing will show the messages on this request.
			if err := d.keepMessages(ctx, stored, out.Messages); err != nil {
				return err
			}
			if out.Template == "" {
				return &domain.ControllerFailureError{Message: failureMessage(data)}
			}
			return errNoTemplateEngine
		}

		messages := make([]domain.Message, 0, len(stored)+len(out.Messages))
		messages = append(messages, stored...)
		messages = append(messages, out.Messages...)
		data[domain.KeyMessages] = messages
		data[domain.KeyPermissions] = d.identity.Permissions.Tokens()

		if err := d.k.templates.Render(&buf, out.Template, data); err != nil {
			if kerr := d.keepMessages(ctx, stored, out.Messages); kerr != nil {
				d.logger.Error("messages of a failed render were lost", "err", kerr)
			}
			return fmt.Errorf("render template %q: %w", out.Template, err)
		}
		if len(stored) > 0 {
			if err := d.sess.Delete(ctx, domain.KeyMessages); err != nil {
				return fmt.Errorf("flush session messages: %w", err)
			}
		}
		ctype = view.HTMLMime
	}

	if err := d.commit(ctx); err != nil {
		return err
	}
	if disposition != "" {
		d.w.ContentDisposition(disposition)
	}
	d.write(http.StatusOK, ctype, buf.Bytes())
	return nil
}

func (d *dispatch) redirect(ctx context.Context, target string) error {
	if err := d.commit(ctx); err != nil {
		return err
	}
	d.res.Status = http.StatusSeeOther
	d.res.Location = target
	d.w.Redirect(target)
	return nil
}

// commit saves the session once. A session created by this request is handed
// to the client only when something was stored in it.
func (d *dispatch) commit(ctx context.Context) error {
	if d.sess == nil || d.saved {
		return nil
	}
	d.saved = true

	issue := d.sess.IsNew() && d.sess.Dirty()
	if err := d.k.sessions.Save(ctx, d.sess); err != nil {
		return err
	}
	if issue {
		d.w.Session(d.sess.ID())
	}
	return nil
}

// fail renders err as an error page. When that fails too the response is plain text.
func (d *dispatch) fail(ctx context.Context, err error) {
	status := domain.StatusOf(err)
	d.res.Status = status
	d.res.Err = err

	if status == http.StatusInternalServerError {
		d.logger.Error("request failed", "status", status, "err", err)
	} else {
		d.logger.Info("request rejected", "status", status, "err", err)
	}

	if cerr := d.commit(ctx); cerr != nil {
		d.logger.Error("session save failed", "err", cerr)
	}

	msg := domain.PublicMessage(err)
	var (
		buf   bytes.Buffer
		ctype string
		rerr  error
	)
	if d.res.Mode == domain.ResponseHTML {
		ctype = view.HTMLMime
		rerr = d.renderErrorPage(&buf, msg)
	} else {
		ctype = view.JSONMime
		rerr = (view.JSON{}).Render(&buf, map[string]any{domain.KeyError: msg})
	}

	if rerr != nil {
		d.logger.Error("fatal: error page could not be rendered", "err", rerr, "cause", err)
		d.w.Status(status)
		d.w.ContentType(textMime)
		_, _ = io.WriteString(d.w, FallbackBody)
		return
	}
	d.write(status, ctype, buf.Bytes())
}

func (d *dispatch) renderErrorPage(w io.Writer, msg string) error {
	if d.k.templates == nil {
		return errNoTemplateEngine
	}
	page := make(map[string]any, len(d.data)+1)
	for k, v := range d.data {
		page[k] = v
	}
	page[domain.KeyError] = msg
	return d.k.templates.Render(w, d.k.errorTemplate, page)
}

func (d *dispatch) write(status int, ctype string, body []byte) {
	d.res.Status = status
	d.w.Status(status)
	d.w.ContentType(ctype)
	if _, err := d.w.Write(body); err != nil {
		d.logger.Warn("response write failed", "err", err)
	}
}

// failureMessage is the message of an HTML chain that ended with nothing to render.
func failureMessage(data map[string]any) string {
	switch v := data[domain.KeyError].(type) {
	case nil:
		return "unknown failure"
	case string:
		if v == "" {
			return "unknown failure"
		}
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

func normalizeMethod(method string) string {
	if method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(method)
}
