// Package api exposes the stored opportunities and the filter/score pipeline
// over a small JSON API. All routes except the health check and login require
// a Bearer token issued by POST /auth/login.
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/david/rfp-finder/internal/auth"
	"github.com/david/rfp-finder/internal/filter"
	"github.com/david/rfp-finder/internal/models"
	"github.com/david/rfp-finder/internal/pipeline"
	"github.com/david/rfp-finder/internal/store"
)

// Server serves one profile. Filter and score requests run against the
// profile the server was started with.
type Server struct {
	Store    *store.Store
	Pipeline *pipeline.Pipeline
	Profile  *models.UserProfile
	Echo     *echo.Echo
}

func NewServer(p *pipeline.Pipeline, profile *models.UserProfile) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		Store:    p.Store,
		Pipeline: p,
		Profile:  profile,
		Echo:     e,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/healthz", s.handleHealth)
	s.Echo.POST("/auth/login", s.handleLogin)

	protected := s.Echo.Group("")
	protected.Use(auth.Middleware)
	protected.GET("/opportunities", s.handleListOpportunities)
	protected.GET("/opportunities/:id", s.handleGetOpportunity)
	protected.POST("/filter", s.handleFilter)
	protected.POST("/score", s.handleScore)
	protected.GET("/runs", s.handleListRuns)
	protected.GET("/stats/exclusions", s.handleExclusionStats)
}

func (s *Server) Start(addr string) error {
	return s.Echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	token, err := auth.Login(req.Password)
	if err != nil {
		switch err {
		case auth.ErrInvalidCreds:
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		case auth.ErrAuthDisabled:
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Login is not configured"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	ctx := c.Request().Context()
	status := c.QueryParam("status")
	source := c.QueryParam("source")

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	var opps []*models.NormalizedOpportunity
	var err error
	if status != "" {
		opps, err = s.Store.GetByStatus(ctx, status)
	} else {
		opps, err = s.Store.GetAll(ctx)
	}
	if err != nil {
		c.Logger().Errorf("Failed to list opportunities: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	if source != "" {
		filtered := opps[:0]
		for _, opp := range opps {
			if opp.Source == source {
				filtered = append(filtered, opp)
			}
		}
		opps = filtered
	}
	if len(opps) > limit {
		opps = opps[:limit]
	}

	return c.JSON(http.StatusOK, map[string]any{
		"count":         len(opps),
		"opportunities": opps,
	})
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	opp, err := s.Store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		c.Logger().Errorf("Failed to get opportunity: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	if opp == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, opp)
}

type filterRequest struct {
	Status  string `json:"status"`
	Explain bool   `json:"explain"`
}

func (s *Server) handleFilter(c echo.Context) error {
	var req filterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	passed, results, err := s.Pipeline.RunFilterOnly(c.Request().Context(), s.Profile, req.Status)
	if err != nil {
		c.Logger().Errorf("Filter failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	resp := map[string]any{
		"total":  len(results),
		"passed": len(passed),
	}
	if req.Explain {
		resp["results"] = results
	} else {
		resp["opportunities"] = passed
	}
	return c.JSON(http.StatusOK, resp)
}

type scoreRequest struct {
	Status     string `json:"status"`
	TopK       int    `json:"top_k"`
	EnrichTopN int    `json:"enrich_top_n"`
	CacheDir   string `json:"cache_dir"`
}

func (s *Server) handleScore(c echo.Context) error {
	var req scoreRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	scored, results, err := s.Pipeline.Run(c.Request().Context(), s.Profile, pipeline.Options{
		Status:     req.Status,
		TopK:       req.TopK,
		EnrichTopN: req.EnrichTopN,
		CacheDir:   req.CacheDir,
	})
	if err != nil {
		c.Logger().Errorf("Score failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total":   len(results),
		"scored":  len(scored),
		"results": scored,
	})
}

func (s *Server) handleListRuns(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	runs, err := s.Store.ListRuns(c.Request().Context(), limit)
	if err != nil {
		c.Logger().Errorf("Failed to list runs: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": runs})
}

// handleExclusionStats runs the hard filter and aggregates which rule
// excluded how many opportunities.
func (s *Server) handleExclusionStats(c echo.Context) error {
	_, results, err := s.Pipeline.RunFilterOnly(c.Request().Context(), s.Profile, c.QueryParam("status"))
	if err != nil {
		c.Logger().Errorf("Exclusion stats failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, filter.ComputeExclusionStats(results))
}
