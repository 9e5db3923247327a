package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/leynos"
	"github.com/aretw0/leynos/internal/logging"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/ports"
	"github.com/aretw0/leynos/pkg/route"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// RoutesURI is the resource exposing the route table.
const RoutesURI = "leynos://routes"

// DispatchResponse is the structured result of the dispatch tool.
type DispatchResponse struct {
	Status      int    `json:"status" jsonschema_description:"HTTP status of the response"`
	Group       string `json:"group,omitempty" jsonschema_description:"Resolved route group"`
	Route       string `json:"route,omitempty" jsonschema_description:"Resolved route"`
	Mode        string `json:"mode" jsonschema_description:"Response mode"`
	ContentType string `json:"content_type,omitempty" jsonschema_description:"MIME type of the body"`
	Location    string `json:"location,omitempty" jsonschema_description:"Redirect target, if any"`
	SessionID   string `json:"session_id,omitempty" jsonschema_description:"Session to pass on the next call"`
	Body        string `json:"body" jsonschema_description:"Response body"`
}

// Kernel is what the MCP server needs from the dispatch engine.
type Kernel interface {
	Dispatch(ctx context.Context, req *domain.Request, w ports.ResponseWriter) *leynos.Result
	Routes() ([]route.Info, error)
}

// Server exposes a kernel as an MCP server.
type Server struct {
	kernel    Kernel
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(k Kernel, opts ...Option) *Server {
	s := &Server{
		kernel:    k,
		mcpServer: server.NewMCPServer("leynos-mcp", leynos.Version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP server listening (SSE)", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	dispatchTool := mcp.NewTool("dispatch",
		mcp.WithDescription("Dispatch a request path through the engine and return the rendered response."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Request path, e.g. /group/route/json")),
		mcp.WithString("method", mcp.Description("HTTP method (default GET)")),
		mcp.WithString("params", mcp.Description("JSON object of request parameters")),
		mcp.WithString("session_id", mcp.Description("Session returned by an earlier call")),
		mcp.WithOutputSchema[DispatchResponse](),
	)
	s.mcpServer.AddTool(dispatchTool, mcp.NewStructuredToolHandler(s.handleDispatch))

	s.mcpServer.AddTool(mcp.NewTool("list_routes",
		mcp.WithDescription("List every reachable route with its method, permission and exits."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := s.routesJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list routes failed: %v", err)), nil
		}
		return mcp.NewToolResultText(text), nil
	})
}

func (s *Server) handleDispatch(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (DispatchResponse, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return DispatchResponse{}, errors.New("path is required")
	}
	method, _ := args["method"].(string)
	sessionID, _ := args["session_id"].(string)

	params := make(map[string]any)
	if raw, ok := args["params"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return DispatchResponse{}, fmt.Errorf("params must be a JSON object: %w", err)
		}
	}

	rec := leynos.NewRecorder()
	res := s.kernel.Dispatch(ctx, &domain.Request{
		Path:      path,
		Method:    method,
		Params:    params,
		SessionID: sessionID,
	}, rec)
	if res.Err != nil {
		s.logger.Debug("MCP dispatch failed", "path", path, "status", res.Status, "err", res.Err)
	}

	sid := sessionID
	if rec.SessionID != "" {
		sid = rec.SessionID
	}
	out := DispatchResponse{
		Status:      rec.Code,
		Group:       res.Group,
		Route:       res.Route,
		Mode:        string(res.Mode),
		ContentType: rec.Type,
		Location:    rec.Location,
		SessionID:   sid,
		Body:        rec.String(),
	}
	return out, nil
}

func (s *Server) routesJSON() (string, error) {
	routes, err := s.kernel.Routes()
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(routes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(RoutesURI, "Route table",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := s.routesJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to list routes: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      RoutesURI,
				MIMEType: "application/json",
				Text:     text,
			},
		}, nil
	})
}
