package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/caura/recon-engine/internal/api/dto"
	"github.com/caura/recon-engine/internal/application/recon"
	"github.com/caura/recon-engine/internal/domain/matcher"
	"github.com/caura/recon-engine/internal/domain/registry"
	"github.com/caura/recon-engine/internal/infrastructure/storage"
)

func (s *Server) listRuns(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, _ := strconv.Atoi(limitStr)
	if limit <= 0 {
		limit = 20
	}

	records, err := s.store.ListRuns(limit)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	runs := make([]dto.RunResponse, 0, len(records))
	for _, rec := range records {
		runs = append(runs, dto.ToRunResponse(rec))
	}
	c.JSON(http.StatusOK, dto.RunListResponse{Runs: runs, Count: len(runs)})
}

func (s *Server) getRun(c *gin.Context) {
	runID := c.Param("runId")

	rec, err := s.store.GetRun(runID)
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, dto.NotFoundError("run"))
			return
		}
		s.logger.Error("failed to fetch run", "run_id", runID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	// The stored payload is the full report; return it verbatim so the
	// audit trail survives the round trip byte for byte.
	var full json.RawMessage = []byte(rec.ReportJSON)
	c.JSON(http.StatusOK, gin.H{
		"run":    dto.ToRunResponse(rec),
		"report": full,
	})
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := s.store.GetStats()
	if err != nil {
		s.logger.Error("failed to fetch stats", "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}
	if len(req.Clients) == 0 {
		c.JSON(http.StatusBadRequest, dto.ValidationError("clients must not be empty"))
		return
	}

	index, err := registry.BuildIndex(req.Clients, &s.cfg.Matching)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, dto.ValidationError(err.Error()))
		return
	}

	engine, err := matcher.NewEngine(&s.cfg.Matching)
	if err != nil {
		s.logger.Error("engine construction failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	transactions := make([]*matcher.Transaction, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		transactions = append(transactions, t.ToTransaction(req.Platform))
	}

	orchestrator := recon.NewOrchestrator(engine, index, &s.cfg.Matching, s.logger)
	rep := orchestrator.Run(c.Request.Context(), transactions, recon.Options{
		Platform:         req.Platform,
		SourceIdentifier: req.SourceIdentifier,
	})

	if err := s.store.SaveRun(rep); err != nil {
		s.logger.Error("failed to persist run", "run_id", rep.RunID, "error", err)
	}

	c.JSON(http.StatusOK, rep)
}
