package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fairdraw/internal/models"
	"fairdraw/internal/services"
	"fairdraw/internal/snapshot"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

// HTTPHandler holds the dependencies for the HTTP handlers, like the round service.
type HTTPHandler struct {
	service *services.RoundService
	metrics http.Handler
}

// NewHTTPHandler creates a new HTTPHandler. metrics may be nil.
func NewHTTPHandler(service *services.RoundService, metrics http.Handler) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		metrics: metrics,
	}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	// Operator routes.
	router.POST("/rounds", h.StartRound)
	router.POST("/rounds/close", h.CloseRound)
	router.POST("/rounds/:id/deposits", h.RecordDeposit)
	router.POST("/rounds/:id/draw", h.DrawWinners)

	// Public audit routes.
	router.GET("/rounds", h.ListRounds)
	router.GET("/rounds/current", h.CurrentRound)
	router.GET("/rounds/:id", h.GetRound)
	router.GET("/rounds/:id/deposits", h.ListDeposits)
	router.GET("/rounds/:id/positions/:position", h.ResolvePosition)
	router.GET("/rounds/:id/winners", h.ListWinners)
	router.GET("/rounds/:id/winners/:index", h.GetWinner)
	router.GET("/rounds/:id/winners.csv", h.ExportWinnersCSV)
	router.GET("/rounds/:id/fairness", h.VerifyFairness)
	router.GET("/depositors/:id/deposits", h.DepositsFor)

	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}
}

// writeError maps the engine's error categories to HTTP status codes.
func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrRoundNotFound):
		status = http.StatusNotFound
	case models.IsValidationError(err):
		status = http.StatusBadRequest
	case models.IsStateError(err):
		status = http.StatusConflict
	case models.IsFairnessError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, snapshot.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *HTTPHandler) roundID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid round id"})
		return 0, false
	}
	return id, true
}

type startRoundRequest struct {
	CommitmentHash models.Hash `json:"commitmentHash"`
	EndTime        time.Time   `json:"endTime"`
}

// StartRound opens a new round bound to a published commitment.
func (h *HTTPHandler) StartRound(c *gin.Context) {
	var req startRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	round, err := h.service.StartRound(req.CommitmentHash, req.EndTime)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, round)
}

type depositRequest struct {
	DepositorID   string `json:"depositorId"`
	BeneficiaryID string `json:"beneficiaryId"`
	Amount        uint64 `json:"amount"`
}

// RecordDeposit records a settled transfer as a weighted entry.
func (h *HTTPHandler) RecordDeposit(c *gin.Context) {
	id, ok := h.roundID(c)
	if !ok {
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deposit, err := h.service.RecordDeposit(id, req.DepositorID, req.BeneficiaryID, req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deposit)
}

type closeRequest struct {
	SnapshotValue models.Hash `json:"snapshotValue"`
}

// CloseRound closes the open round with an externally observed snapshot value.
func (h *HTTPHandler) CloseRound(c *gin.Context) {
	var req closeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SnapshotValue.IsZero() {
		h.writeError(c, models.ErrZeroSnapshot)
		return
	}
	round, err := h.service.CloseRound(c.Request.Context(), snapshot.Static(req.SnapshotValue))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

type drawRequest struct {
	ServerSeed models.Hash `json:"serverSeed"`
}

// DrawWinners reveals the server seed and draws every slot.
func (h *HTTPHandler) DrawWinners(c *gin.Context) {
	id, ok := h.roundID(c)
	if !ok {
		return
	}
	var req drawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	winners, err := h.service.DrawWinners(c.Request.Context(), id, req.ServerSeed)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, winners)
}

func (h *HTTPHandler) ListRounds(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListRounds())
}

func (h *HTTPHandler) CurrentRound(c *gin.Context) {
	round, err := h.service.CurrentRound()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (h *HTTPHandler) GetRound(c *gin.Context) {
	id, ok := h.roundID(c)
	if !ok {
		return
	}
	round, err := h.service.GetRound(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (h *HTTPHandler) ListDeposits(c *gin.Context) {
	id, ok := h.roundID(c)
	if !ok {
		return
	}
	deposits, err := h.service.Deposits(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposits)
}

// ResolvePosition returns the deposit that owns a position.
func (h *HTTPHandler) ResolvePosition(c *gin.Context) {
	id, ok := h.roundID(c)
	if !ok {
		return
	}
	position, err := strconv.ParseUint(c.Param("position"), 10, 64)
	if err != nil {
		h.writeError(c, models.ErrPositionOutOfRange)
		return
	}
	deposit, err := h.service.ResolvePosition(id, position)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

func (h *HTTPHandler) ListWinners(c *gin.Context) {
	id, ok := h.roundID(c)
	if !ok {
		return
	}
	winners, err := h.service.Winners(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, winners)
}

func (h *HTTPHandler) GetWinner(c *gin.Context) {
	id, ok := h.roundID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.writeError(c, models.ErrDrawIndexOutOfRange)
		return
	}
	winner, err := h.service.GetWinner(id, index)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, winner)
}

// VerifyFairness returns the tuple needed to recompute the draw.
func (h *HTTPHandler) VerifyFairness(c *gin.Context) {
	id, ok := h.roundID(c)
	if !ok {
		return
	}
	proof, err := h.service.VerifyFairness(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, proof)
}

func (h *HTTPHandler) DepositsFor(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetDepositsFor(c.Param("id")))
}

// ExportWinnersCSV handles the request to download a drawn round's winners as a CSV file.
func (h *HTTPHandler) ExportWinnersCSV(c *gin.Context) {
	id, ok := h.roundID(c)
	if !ok {
		return
	}
	winners, err := h.service.Winners(id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=round_"+strconv.FormatUint(id, 10)+"_winners.csv")

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)

	if err := w.Write([]string{"draw_index", "random_number", "depositor_id", "beneficiary_id", "range_start", "range_end"}); err != nil {
		logger.Infof("Error writing CSV header: %v", err)
		c.String(http.StatusInternalServerError, "Error writing CSV")
		return
	}

	for _, winner := range winners {
		row := []string{
			strconv.Itoa(winner.DrawIndex),
			strconv.FormatUint(winner.RandomNumber, 10),
			winner.DepositorID,
			winner.BeneficiaryID,
			strconv.FormatUint(winner.RangeStart, 10),
			strconv.FormatUint(winner.RangeEnd, 10),
		}
		if err := w.Write(row); err != nil {
			logger.Infof("Error writing CSV row: %v", err)
			c.String(http.StatusInternalServerError, "Error writing CSV")
			return
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		logger.Infof("Error flushing CSV writer: %v", err)
		c.String(http.StatusInternalServerError, "Error writing CSV")
	}
}
