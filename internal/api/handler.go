package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tradesim/internal/repository"
)

func (s *Server) getStatus(c *gin.Context) {
	if s.live == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live simulation running"})
		return
	}
	c.JSON(http.StatusOK, s.live.Snapshot())
}

func (s *Server) getPositions(c *gin.Context) {
	if s.live == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live simulation running"})
		return
	}
	c.JSON(http.StatusOK, s.live.Snapshot().OpenPositions)
}

func (s *Server) listRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run store configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	summaries, err := s.runs.ListRunSummaries(c.Request.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list runs failed"})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) getRun(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run store configured"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}
	summary, err := s.runs.GetRunSummary(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		s.log.Error().Err(err).Str("id", id.String()).Msg("get run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get run failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
