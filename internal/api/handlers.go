package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/adambarczewski00/telemetry-board/internal/service"
	"github.com/adambarczewski00/telemetry-board/internal/storage"
)

type assetOut struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type createAssetIn struct {
	Symbol string  `json:"symbol" binding:"required"`
	Name   *string `json:"name"`
}

type pricePoint struct {
	TS    time.Time `json:"ts"`
	Price string    `json:"price"`
}

type alertOut struct {
	ID            int64     `json:"id"`
	AssetID       int64     `json:"asset_id"`
	TriggeredAt   time.Time `json:"triggered_at"`
	WindowMinutes int       `json:"window_minutes"`
	ChangePct     string    `json:"change_pct"`
}

type summaryOut struct {
	Points int     `json:"points"`
	First  *string `json:"first"`
	Last   *string `json:"last"`
	Min    *string `json:"min"`
	Max    *string `json:"max"`
	Avg    *string `json:"avg"`
}

func (s *Server) listAssets(c *gin.Context) {
	assets, err := s.svc.ListAssets(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]assetOut, 0, len(assets))
	for _, asset := range assets {
		out = append(out, toAssetOut(asset))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createAsset(c *gin.Context) {
	var in createAssetIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	asset, err := s.svc.CreateAsset(c.Request.Context(), in.Symbol, in.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAssetOut(asset))
}

func (s *Server) listPrices(c *gin.Context) {
	symbol := c.Query("asset")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "asset query parameter is required"})
		return
	}

	var since *time.Time
	if window := c.Query("window"); window != "" {
		d, err := service.ParseWindow(window)
		if err != nil {
			s.fail(c, err)
			return
		}
		cutoff := time.Now().UTC().Add(-d)
		since = &cutoff
	}

	samples, err := s.svc.ListRecentSamples(c.Request.Context(), symbol, since)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]pricePoint, 0, len(samples))
	for _, sample := range samples {
		out = append(out, pricePoint{TS: sample.TS, Price: sample.Price.String()})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) latestPrice(c *gin.Context) {
	symbol := c.Query("asset")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "asset query parameter is required"})
		return
	}

	price, ts, err := s.svc.LatestPrice(c.Request.Context(), symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pricePoint{TS: ts, Price: price.String()})
}

func (s *Server) priceSummary(c *gin.Context) {
	symbol := c.Query("asset")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "asset query parameter is required"})
		return
	}

	window := c.Query("window")
	if window == "" {
		window = "24h"
	}
	d, err := service.ParseWindow(window)
	if err != nil {
		s.fail(c, err)
		return
	}

	summary, err := s.svc.Summarize(c.Request.Context(), symbol, time.Now().UTC().Add(-d))
	if err != nil {
		s.fail(c, err)
		return
	}

	out := summaryOut{Points: summary.Count}
	out.First = decimalString(summary.First)
	out.Last = decimalString(summary.Last)
	out.Min = decimalString(summary.Min)
	out.Max = decimalString(summary.Max)
	out.Avg = decimalString(summary.Avg)
	c.JSON(http.StatusOK, out)
}

func (s *Server) listAlerts(c *gin.Context) {
	symbol := c.Query("asset")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "asset query parameter is required"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be between 1 and 1000"})
			return
		}
		limit = parsed
	}

	events, err := s.svc.ListRecentAlerts(c.Request.Context(), symbol, limit)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]alertOut, 0, len(events))
	for _, event := range events {
		out = append(out, alertOut{
			ID:            event.ID,
			AssetID:       event.AssetID,
			TriggeredAt:   event.TriggeredAt,
			WindowMinutes: event.WindowMinutes,
			ChangePct:     event.ChangePct.String(),
		})
	}
	c.JSON(http.StatusOK, out)
}

// fail maps core error kinds to unambiguous HTTP responses.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "asset not found"})
	case errors.Is(err, service.ErrBadWindow), errors.Is(err, service.ErrInvalidSymbol):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, storage.ErrAssetExists):
		c.JSON(http.StatusConflict, gin.H{"detail": "asset already exists"})
	default:
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}

func toAssetOut(asset storage.Asset) assetOut {
	return assetOut{
		ID:        asset.ID,
		Symbol:    asset.Symbol,
		Name:      asset.Name,
		CreatedAt: asset.CreatedAt,
	}
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
