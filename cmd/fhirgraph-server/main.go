// Command fhirgraph-server runs the FHIR resource server: an echo HTTP
// shell over the Facade, plus operator subcommands for the graph backend.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/fhirgraph/internal/config"
	"github.com/ehr/fhirgraph/internal/fhir/bundle"
	"github.com/ehr/fhirgraph/internal/fhir/conditional"
	"github.com/ehr/fhirgraph/internal/fhir/facade"
	"github.com/ehr/fhirgraph/internal/fhir/jsonpatch"
	"github.com/ehr/fhirgraph/internal/fhir/outcome"
	"github.com/ehr/fhirgraph/internal/fhir/refmaterializer"
	"github.com/ehr/fhirgraph/internal/fhir/validator"
	"github.com/ehr/fhirgraph/internal/fhir/versioning"
	"github.com/ehr/fhirgraph/internal/graph"
	"github.com/ehr/fhirgraph/internal/platform/audit"
	"github.com/ehr/fhirgraph/internal/platform/middleware"
	"github.com/ehr/fhirgraph/pkg/pagination"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fhirgraph-server",
		Short: "FHIR R6 resource server over a property-graph backend",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(graphCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the FHIR HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect or reset the graph backend",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "wipe",
		Short: "Delete every vertex and edge in the graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, repo, closeRepo, err := loadRepo()
			if err != nil {
				return err
			}
			defer closeRepo()
			_ = cfg

			n, err := repo.DropAll(context.Background())
			if err != nil {
				return fmt.Errorf("wipe failed: %w", err)
			}
			fmt.Printf("Deleted %d vertices.\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Report vertex count",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, repo, closeRepo, err := loadRepo()
			if err != nil {
				return err
			}
			defer closeRepo()

			n, err := repo.CountVertices(context.Background())
			if err != nil {
				return fmt.Errorf("stats failed: %w", err)
			}
			fmt.Printf("Vertex count: %d\n", n)
			return nil
		},
	})

	return cmd
}

// loadRepo builds the GraphRepo the CLI subcommands operate on: a Neo4j
// backend when GRAPH_HOST/credentials resolve to a real driver, otherwise
// an in-memory one for local/dev use. The returned close func is always
// safe to defer.
func loadRepo() (*config.Config, graph.Repo, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.IsDev() && cfg.GraphHost == "localhost" && cfg.GraphUsername == "" {
		return cfg, graph.NewMemoryRepo(), func() {}, nil
	}

	driver, err := neo4j.NewDriverWithContext(cfg.BoltURI(), neo4j.BasicAuth(cfg.GraphUsername, cfg.GraphPassword, ""))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to graph backend: %w", err)
	}
	repo := graph.NewNeo4jRepo(driver, "")
	closeFn := func() { _ = driver.Close(context.Background()) }
	return cfg, repo, closeFn, nil
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	var repo graph.Repo
	var closeRepo func()
	if cfg.IsDev() && cfg.GraphHost == "localhost" && cfg.GraphUsername == "" {
		logger.Warn().Msg("using in-memory graph backend; set GRAPH_HOST/GRAPH_USERNAME for Neo4j")
		repo = graph.NewMemoryRepo()
		closeRepo = func() {}
	} else {
		driver, derr := neo4j.NewDriverWithContext(cfg.BoltURI(), neo4j.BasicAuth(cfg.GraphUsername, cfg.GraphPassword, ""))
		if derr != nil {
			logger.Fatal().Err(derr).Msg("failed to connect to graph backend")
		}
		repo = graph.NewNeo4jRepo(driver, "")
		closeRepo = func() { _ = driver.Close(context.Background()) }
		logger.Info().Str("uri", cfg.BoltURI()).Msg("connected to graph backend")
	}
	defer closeRepo()

	var auditLogger *audit.Logger
	if cfg.AuditDatabaseURL != "" {
		pool, aerr := pgxpool.New(context.Background(), cfg.AuditDatabaseURL)
		if aerr != nil {
			logger.Fatal().Err(aerr).Msg("failed to connect audit database")
		}
		defer pool.Close()
		auditLogger = audit.New(pool, logger)
		logger.Info().Msg("audit sink enabled")
	} else {
		auditLogger = audit.New(nil, logger)
	}

	v := validator.New(cfg.SchemaPath)
	mv := refmaterializer.NewVersioned(repo, logger)
	ver := versioning.New(repo, v, mv, nowRFC3339)
	cond := conditional.New(ver, v)
	bp := bundle.New(ver)
	f := facade.New(repo, v, ver, cond, bp, facade.Config{
		BaseURL:     fmt.Sprintf("http://localhost:%s/api/fhir/%s", cfg.HTTPPort, majorVersion(cfg.FHIRVersion)),
		FhirVersion: cfg.FHIRVersion,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "If-Match", "If-None-Match", "If-None-Exist", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	base := e.Group(fmt.Sprintf("/api/fhir/%s", majorVersion(cfg.FHIRVersion)))
	registerFHIRRoutes(base, f, auditLogger)

	addr := ":" + cfg.HTTPPort
	logger.Info().Str("addr", addr).Msg("fhirgraph-server listening")
	return e.Start(addr)
}

func majorVersion(fhirVersion string) string {
	if i := strings.Index(fhirVersion, "."); i > 0 {
		return "r" + fhirVersion[:i]
	}
	return "r6"
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// registerFHIRRoutes wires every endpoint named in the HTTP surface onto a
// single Facade. Handlers do request/response translation only; every
// decision about status codes, headers, and body shape was already made by
// the Facade result they render.
func registerFHIRRoutes(g *echo.Group, f *facade.Facade, al *audit.Logger) {
	g.GET("/metadata", func(c echo.Context) error {
		return renderOperation(c, f.CapabilityStatement())
	})

	g.POST("/:type", func(c echo.Context) error {
		resourceType := c.Param("type")
		body, err := readBody(c)
		if err != nil {
			return err
		}
		filters := ifNoneExistFilters(c.Request().Header.Get("If-None-Exist"))
		res := f.Create(c.Request().Context(), resourceType, body, filters)
		if res.Success {
			al.Log(c.Request().Context(), resourceType, extractID(res.Body), "create", actor(c))
		}
		return renderFHIR(c, res)
	})

	g.GET("/:type/:id", func(c echo.Context) error {
		res := f.Read(c.Request().Context(), c.Param("type"), c.Param("id"), c.Request().Header.Get("If-None-Match"))
		return renderFHIR(c, res)
	})

	g.PUT("/:type/:id", func(c echo.Context) error {
		resourceType, id := c.Param("type"), c.Param("id")
		body, err := readBody(c)
		if err != nil {
			return err
		}
		res := f.Update(c.Request().Context(), resourceType, id, body, c.Request().Header.Get("If-Match"))
		if res.Success {
			al.Log(c.Request().Context(), resourceType, id, "update", actor(c))
		}
		return renderFHIR(c, res)
	})

	g.PUT("/:type", func(c echo.Context) error {
		resourceType := c.Param("type")
		body, err := readBody(c)
		if err != nil {
			return err
		}
		res := f.ConditionalUpdate(c.Request().Context(), resourceType, body, searchFilters(c))
		if res.Success {
			al.Log(c.Request().Context(), resourceType, extractID(res.Body), "update", actor(c))
		}
		return renderFHIR(c, res)
	})

	g.DELETE("/:type", func(c echo.Context) error {
		resourceType := c.Param("type")
		res := f.ConditionalDelete(c.Request().Context(), resourceType, searchFilters(c))
		if res.Success {
			al.Log(c.Request().Context(), resourceType, "", "delete", actor(c))
		}
		return renderFHIR(c, res)
	})

	g.PATCH("/:type", func(c echo.Context) error {
		resourceType := c.Param("type")
		raw, err := readRawBody(c)
		if err != nil {
			return err
		}
		ops, perr := jsonpatch.Parse(raw)
		if perr != nil {
			return renderFHIR(c, &facade.FhirOperationResult{
				Success: false, Status: 422,
				Body: outcome.FromError(outcome.Unprocessable("%v", perr)),
			})
		}
		res := f.ConditionalPatch(c.Request().Context(), resourceType, searchFilters(c), ops)
		if res.Success {
			al.Log(c.Request().Context(), resourceType, extractID(res.Body), "patch", actor(c))
		}
		return renderFHIR(c, res)
	})

	g.DELETE("/:type/:id", func(c echo.Context) error {
		resourceType, id := c.Param("type"), c.Param("id")
		res := f.Delete(c.Request().Context(), resourceType, id)
		if res.Success {
			al.Log(c.Request().Context(), resourceType, id, "delete", actor(c))
		}
		return renderFHIR(c, res)
	})

	g.PATCH("/:type/:id", func(c echo.Context) error {
		resourceType, id := c.Param("type"), c.Param("id")
		raw, err := readRawBody(c)
		if err != nil {
			return err
		}
		ops, perr := jsonpatch.Parse(raw)
		if perr != nil {
			return renderFHIR(c, &facade.FhirOperationResult{
				Success: false, Status: 422,
				Body: outcome.FromError(outcome.Unprocessable("%v", perr)),
			})
		}
		res := f.Patch(c.Request().Context(), resourceType, id, ops)
		if res.Success {
			al.Log(c.Request().Context(), resourceType, id, "patch", actor(c))
		}
		return renderFHIR(c, res)
	})

	g.GET("/:type/:id/_history", func(c echo.Context) error {
		p := pagination.FromContext(c)
		res := f.InstanceHistory(c.Request().Context(), c.Param("type"), c.Param("id"), p.Limit)
		return renderFHIR(c, res)
	})

	g.GET("/:type/:id/_history/:vid", func(c echo.Context) error {
		vid, err := strconv.Atoi(c.Param("vid"))
		if err != nil {
			return renderFHIR(c, &facade.FhirOperationResult{
				Success: false, Status: 400,
				Body: outcome.FromError(outcome.ValidationFailure("invalid version id %q", c.Param("vid"))),
			})
		}
		res := f.VRead(c.Request().Context(), c.Param("type"), c.Param("id"), vid)
		return renderFHIR(c, res)
	})

	g.GET("/:type/_history", func(c echo.Context) error {
		p := pagination.FromContext(c)
		res := f.TypeHistory(c.Request().Context(), c.Param("type"), p.Limit, c.QueryParam("_since"))
		return renderFHIR(c, res)
	})

	g.GET("/_history", func(c echo.Context) error {
		p := pagination.FromContext(c)
		res := f.SystemHistory(c.Request().Context(), p.Limit, c.QueryParam("_since"))
		return renderFHIR(c, res)
	})

	g.GET("/:type", func(c echo.Context) error {
		resourceType := c.Param("type")
		p := pagination.FromContext(c)
		filters := searchFilters(c)
		selfURL := p.SelfURL(c.Request().URL.Path, c.Request().URL.Query())
		res := f.Search(c.Request().Context(), resourceType, filters, p.Limit, p.Offset, selfURL)
		return renderFHIR(c, res)
	})

	g.GET("/_search", func(c echo.Context) error {
		p := pagination.FromContext(c)
		filters := searchFilters(c)
		selfURL := p.SelfURL(c.Request().URL.Path, c.Request().URL.Query())
		res := f.SearchSystem(c.Request().Context(), filters, p.Limit, selfURL)
		return renderFHIR(c, res)
	})

	g.GET("/Patient/:id/$everything", func(c echo.Context) error {
		p := pagination.FromContext(c)
		selfURL := p.SelfURL(c.Request().URL.Path, c.Request().URL.Query())
		res := f.Everything(c.Request().Context(), c.Param("id"), p.Limit, selfURL)
		return renderFHIR(c, res)
	})

	g.POST("/$validate", func(c echo.Context) error {
		body, err := readBody(c)
		if err != nil {
			return err
		}
		return renderFHIR(c, f.Validate(body))
	})

	g.POST("", func(c echo.Context) error {
		body, err := readBody(c)
		if err != nil {
			return err
		}
		return renderFHIR(c, f.Batch(c.Request().Context(), body))
	})
}

func readBody(c echo.Context) (string, error) {
	raw, err := readRawBody(c)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func readRawBody(c echo.Context) ([]byte, error) {
	defer c.Request().Body.Close()
	return io.ReadAll(c.Request().Body)
}

func actor(c echo.Context) string {
	if a := c.Request().Header.Get("X-Actor"); a != "" {
		return a
	}
	return "anonymous"
}

func extractID(body interface{}) string {
	m, ok := body.(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := m["id"].(string)
	return id
}

// ifNoneExistFilters parses the If-None-Exist header's search-param query
// string ("identifier=abc&_id=123") into equality filters.
func ifNoneExistFilters(header string) []graph.Filter {
	if header == "" {
		return nil
	}
	return parseFilterString(header)
}

func searchFilters(c echo.Context) []graph.Filter {
	var filters []graph.Filter
	for k, values := range c.QueryParams() {
		if strings.HasPrefix(k, "_") || len(values) == 0 {
			continue
		}
		filters = append(filters, graph.Filter{Key: k, Value: values[0]})
	}
	return filters
}

func parseFilterString(qs string) []graph.Filter {
	var filters []graph.Filter
	for _, pair := range strings.Split(qs, "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			continue
		}
		filters = append(filters, graph.Filter{Key: kv[0], Value: kv[1]})
	}
	return filters
}

func renderFHIR(c echo.Context, res *facade.FhirOperationResult) error {
	if res.Location != "" {
		c.Response().Header().Set("Location", res.Location)
	}
	if res.ETag != "" {
		c.Response().Header().Set("ETag", res.ETag)
	}
	if res.LastModified != "" {
		c.Response().Header().Set("Last-Modified", res.LastModified)
	}
	if res.Body == nil {
		return c.NoContent(res.Status)
	}
	return c.JSON(res.Status, res.Body)
}

func renderOperation(c echo.Context, res *facade.OperationResult) error {
	if res.Body == nil {
		return c.NoContent(res.Status)
	}
	return c.JSON(res.Status, res.Body)
}
