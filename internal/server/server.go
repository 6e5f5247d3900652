// Package server exposes catalog lookup, similarity search and plan
// simulation over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/embeddings"
	"github.com/leadgen/phantom-cli/internal/metrics"
	"github.com/leadgen/phantom-cli/internal/search/index"
)

// State is one consistent catalog/index pair. It is replaced whole, never
// mutated, so handlers always read a fully built index.
type State struct {
	Store *catalog.Store
	Index *index.Index
}

// Options configures a Server.
type Options struct {
	// DefaultK is used when a search request omits k.
	DefaultK int
	// MaxSteps caps proposed plans.
	MaxSteps int
	// Metrics, when set, is mounted at GET /metrics.
	Metrics http.Handler
}

// Server serves the phantom HTTP API.
type Server struct {
	prov   embeddings.Provider
	opts   Options
	state  atomic.Pointer[State]
	router *gin.Engine
}

// New returns a Server answering from st.
func New(prov embeddings.Provider, st *State, opts Options) *Server {
	if opts.DefaultK <= 0 {
		opts.DefaultK = 5
	}
	s := &Server{prov: prov, opts: opts}
	s.state.Store(st)

	r := gin.New()
	r.Use(gin.Recovery(), s.observe)
	r.GET("/healthz", s.handleHealth)
	r.GET("/v1/phantoms", s.handleList)
	r.GET("/v1/phantoms/:id", s.handleGet)
	r.GET("/v1/search", s.handleSearch)
	r.POST("/v1/plans", s.handlePlan)
	r.POST("/v1/runs", s.handleRun)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// State returns the pair currently served.
func (s *Server) State() *State { return s.state.Load() }

// Swap atomically replaces the served catalog and index.
func (s *Server) Swap(st *State) {
	s.state.Store(st)
	slog.Info("index swapped", "entries", st.Index.Len(), "model", st.Index.ModelID())
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) observe(c *gin.Context) {
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	done := metrics.TimeRequest(c.Request.Method + " " + route)
	c.Next()
	done(c.Writer.Status())
}

func fail(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, gin.H{"message": err.Error(), "code": code})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var embErr *index.EmbeddingError
	switch {
	case errors.Is(err, index.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, index.ErrModelMismatch):
		return http.StatusConflict
	case errors.As(err, &embErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	st := s.state.Load()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"entries": st.Index.Len(),
		"model":   st.Index.ModelID(),
	})
}

func (s *Server) handleList(c *gin.Context) {
	st := s.state.Load()
	c.JSON(http.StatusOK, gin.H{"phantoms": st.Store.Entries()})
}

func (s *Server) handleGet(c *gin.Context) {
	st := s.state.Load()
	e, err := st.Store.Get(c.Param("id"))
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, e)
}

type searchHit struct {
	catalog.Entry
	Distance float64 `json:"distance"`
}

func (s *Server) handleSearch(c *gin.Context) {
	k := s.opts.DefaultK
	if raw := c.Query("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, errors.New("k must be an integer"))
			return
		}
		k = n
	}

	st := s.state.Load()
	res, err := st.Index.Search(c.Request.Context(), s.prov, c.Query("q"), k)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	hits := make([]searchHit, len(res))
	for i, r := range res {
		hits[i] = searchHit{Entry: r.Entry, Distance: r.Distance}
	}
	c.JSON(http.StatusOK, gin.H{"query": c.Query("q"), "results": hits})
}
