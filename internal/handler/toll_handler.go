package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nstankic/tollcalc/server/internal/lib/geo"
	"github.com/nstankic/tollcalc/server/internal/services"
)

// TollHandler handles HTTP requests for toll quoting.
type TollHandler struct {
	service *services.TollService
	log     *zap.SugaredLogger
}

// NewTollHandler creates a new TollHandler.
func NewTollHandler(service *services.TollService, log *zap.SugaredLogger) *TollHandler {
	return &TollHandler{service: service, log: log}
}

// RegisterRoutes registers all toll routes on the given router.
func (h *TollHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/quote", h.QuoteRoute)
		v1.POST("/trip", h.QuoteTrip)
		v1.GET("/stations", h.ListStations)
		v1.GET("/matrices", h.ListMatrices)
		v1.GET("/matrices/:name/labels", h.MatrixLabels)
	}
}

// QuoteRouteRequest carries an externally produced route geometry, either as
// a point list or as a Google-encoded polyline.
type QuoteRouteRequest struct {
	Route    []geo.Point `json:"route"`
	Polyline string      `json:"polyline"`
}

// QuoteRoute handles POST /api/v1/quote.
func (h *TollHandler) QuoteRoute(c *gin.Context) {
	var req QuoteRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coords := req.Route
	if len(coords) == 0 && req.Polyline != "" {
		decoded, err := geo.DecodePolyline(req.Polyline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		coords = decoded
	}
	if len(coords) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "route or polyline is required"})
		return
	}
	for _, p := range coords {
		if !p.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "route contains invalid coordinates"})
			return
		}
	}

	result, err := h.service.QuoteRoute(c.Request.Context(), coords)
	if err != nil {
		h.writeQuoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// QuoteTripRequest asks for a routed and priced trip between two points.
type QuoteTripRequest struct {
	Start geo.Point `json:"start" binding:"required"`
	End   geo.Point `json:"end" binding:"required"`
}

// QuoteTrip handles POST /api/v1/trip.
func (h *TollHandler) QuoteTrip(c *gin.Context) {
	var req QuoteTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.Start.Valid() || !req.End.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be valid coordinates"})
		return
	}

	quote, err := h.service.QuoteTrip(c.Request.Context(), req.Start, req.End)
	if err != nil {
		h.writeQuoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// ListStations handles GET /api/v1/stations.
func (h *TollHandler) ListStations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stations": h.service.Stations()})
}

// ListMatrices handles GET /api/v1/matrices.
func (h *TollHandler) ListMatrices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"matrices": h.service.MatrixNames()})
}

// MatrixLabels handles GET /api/v1/matrices/:name/labels.
func (h *TollHandler) MatrixLabels(c *gin.Context) {
	name := c.Param("name")

	labels, err := h.service.MatrixLabels(c.Request.Context(), name)
	if err != nil {
		if services.IsUnknownMatrix(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown matrix: " + name})
			return
		}
		h.writeQuoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name, "labels": labels})
}

// Health handles GET /healthz.
func (h *TollHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeQuoteError maps pipeline failures to HTTP statuses: a matrix name
// missing from the registry is a server configuration bug, an unreachable
// source is an upstream failure. Partial totals are never written.
func (h *TollHandler) writeQuoteError(c *gin.Context, err error) {
	h.log.Errorw("quote failed", "path", c.FullPath(), "error", err)

	switch {
	case services.IsUnknownMatrix(err):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "matrix registry misconfigured"})
	case services.IsSourceUnavailable(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "toll price source unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
