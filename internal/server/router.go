package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"marketwatch/internal/metrics"
	"marketwatch/internal/watcher"
)

// Router provides embeddable HTTP handlers for observing the watcher.
// Endpoints:
//
//	GET {basePath}/healthz   liveness probe
//	GET {basePath}/status    last cycle outcome, ledger size, session uses
//	GET {basePath}/metrics   Prometheus metrics
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	watcher  *watcher.Watcher
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
func NewRouter(w *watcher.Watcher, basePath string) *Router {
	return &Router{watcher: w, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/healthz", r.handleHealthz)
	group.GET("/status", r.handleStatus)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, w *watcher.Watcher) (*http.Server, error) {
	r := NewRouter(w, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (r *Router) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, r.watcher.Status())
}

func sanitizeBase(bp string) string {
	bp = strings.TrimSpace(bp)
	if bp == "" || bp == "/" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimRight(bp, "/")
}
