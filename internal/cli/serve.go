package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/gridplan/gridplan/pkg/buildinfo"
	"github.com/gridplan/gridplan/pkg/cache"
	"github.com/gridplan/gridplan/pkg/perrors"
	"github.com/gridplan/gridplan/pkg/pipeline"
)

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		mongoURI  string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose placement as an HTTP API",
		Long: `Expose placement as an HTTP API.

POST a design to /api/place to receive the placement report. Results
are cached; point --redis at a Redis instance or --mongo at a MongoDB
instance to share the cache between server replicas, otherwise the
local file cache is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.serverCache(cmd.Context(), redisAddr, mongoURI, noCache)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(store, nil, c.Logger)
			defer runner.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           c.routes(runner),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				c.Logger.Info("listening", "addr", addr)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for a shared cache (host:port)")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB URI for a shared cache (mongodb://host:port)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// serverCache picks the cache backend for the server.
func (c *CLI) serverCache(ctx context.Context, redisAddr, mongoURI string, noCache bool) (cache.Cache, error) {
	switch {
	case noCache:
		return cache.NewNullCache(), nil
	case redisAddr != "":
		store, err := cache.NewRedisCache(ctx, redisAddr)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, nil
	case mongoURI != "":
		store, err := cache.NewMongoCache(ctx, mongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return store, nil
	}
	return newCache(false)
}

// routes builds the chi router.
func (c *CLI) routes(runner *pipeline.Runner) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(c.logRequests)

	r.Get("/healthz", handleHealth)
	r.Get("/version", handleVersion)
	r.Post("/api/place", handlePlace(runner))

	return r
}

// logRequests attaches the CLI logger to the request context and logs
// each request with its duration.
func (c *CLI) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		logger := c.Logger.With("request_id", middleware.GetReqID(req.Context()))
		next.ServeHTTP(w, req.WithContext(withLogger(req.Context(), logger)))
		logger.Debug("handled request",
			"method", req.Method,
			"path", req.URL.Path,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleVersion(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"built":   buildinfo.Date,
	})
}

// placeRequest is the body of POST /api/place.
type placeRequest struct {
	Design   string   `json:"design"` // raw TOML design file
	Capacity int      `json:"capacity,omitempty"`
	Formats  []string `json:"formats,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`
}

// placeResponse is the reply of POST /api/place.
type placeResponse struct {
	RunID     string            `json:"run_id"`
	Report    json.RawMessage   `json:"report"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
	CacheHit  bool              `json:"cache_hit"`
}

// handlePlace runs the pipeline on an uploaded design.
func handlePlace(runner *pipeline.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		logger := loggerFromContext(req.Context())

		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, 4<<20))
		if err != nil {
			respondError(w, http.StatusBadRequest, "read body: "+err.Error())
			return
		}
		var pr placeRequest
		if err := json.Unmarshal(body, &pr); err != nil {
			respondError(w, http.StatusBadRequest, "decode request: "+err.Error())
			return
		}
		if pr.Design == "" {
			respondError(w, http.StatusBadRequest, "design is required")
			return
		}

		formats := pr.Formats
		if len(formats) == 0 {
			formats = []string{pipeline.FormatJSON}
		}

		result, err := runner.Execute(req.Context(), pipeline.Options{
			DesignData: []byte(pr.Design),
			Capacity:   pr.Capacity,
			Refresh:    pr.Refresh,
			Formats:    formats,
			Logger:     logger,
		})
		if err != nil {
			respondError(w, statusForError(err), perrors.UserMessage(err))
			return
		}

		reportData, err := result.Report.MarshalIndent()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "serialize report: "+err.Error())
			return
		}

		resp := placeResponse{
			RunID:    result.RunID,
			Report:   reportData,
			CacheHit: result.CacheInfo.PlaceHit,
		}
		for format, data := range result.Artifacts {
			if format == pipeline.FormatJSON {
				continue // already carried as the report
			}
			if resp.Artifacts == nil {
				resp.Artifacts = make(map[string]string)
			}
			resp.Artifacts[format] = string(data)
		}

		respondJSON(w, http.StatusOK, resp)
	}
}

// statusForError maps pipeline error codes to HTTP statuses.
func statusForError(err error) int {
	switch perrors.GetCode(err) {
	case perrors.ErrCodeInvalidInput, perrors.ErrCodeInvalidDesign,
		perrors.ErrCodeUnknownSite, perrors.ErrCodeSiteTypeMismatch,
		perrors.ErrCodeSiteConflict, perrors.ErrCodeIllegalBinding:
		return http.StatusBadRequest
	}
	var e *perrors.Error
	if !errors.As(err, &e) {
		// Validation errors from options parsing are plain errors.
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
