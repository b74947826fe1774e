package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/dispatch"
	"github.com/spigell/soto-lp/internal/export"
)

type addJobRequest struct {
	DayNumber int    `json:"day_number"`
	JobNumber int    `json:"job_number"`
	RawText   string `json:"raw_text"`
}

type addDriverRequest struct {
	Name     string `json:"name"`
	Postcode string `json:"postcode"`
}

type extractRequest struct {
	RawText string `json:"raw_text"`
}

// fail writes err as a JSON error. Input problems are 400s; everything else is logged and
// reported as a 500 with a generic message.
func (s *Server) fail(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, dispatch.ErrNoJobs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No jobs found"})
	case errors.Is(err, dispatch.ErrNoDrivers):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No drivers found"})
	case errors.Is(err, dispatch.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error(action, zap.Error(err), zap.String(requestIDKey, c.GetString(requestIDKey)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// queryInt reads an optional non-negative integer query parameter, 0 when absent.
func queryInt(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}

func (s *Server) health(c *gin.Context) {
	if s.ping != nil {
		if err := s.ping(c.Request.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) addJob(c *gin.Context) {
	var req addJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing required fields")
		return
	}

	job, outcome, err := s.service.AddJob(c.Request.Context(), req.DayNumber, req.JobNumber, req.RawText)
	if err != nil {
		s.fail(c, "add job", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"job_id":      job.ID,
		"parsed_data": job.StructuredJob,
		"source":      outcome.Source,
	})
}

func (s *Server) getJobs(c *gin.Context) {
	day, err := queryInt(c, "day")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	jobs, err := s.service.Jobs(c.Request.Context(), int(day))
	if err != nil {
		s.fail(c, "get jobs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "jobs": jobs})
}

func (s *Server) addDriver(c *gin.Context) {
	var req addDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Name and postcode are required")
		return
	}

	driver, err := s.service.AddDriver(c.Request.Context(), req.Name, req.Postcode)
	if err != nil {
		s.fail(c, "add driver", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "driver_id": driver.ID, "driver": driver})
}

func (s *Server) getDrivers(c *gin.Context) {
	drivers, err := s.service.Drivers(c.Request.Context())
	if err != nil {
		s.fail(c, "get drivers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "drivers": drivers})
}

func (s *Server) processMatches(c *gin.Context) {
	day, err := queryInt(c, "day")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	matches, err := s.service.ProcessMatches(c.Request.Context(), int(day))
	if err != nil {
		s.fail(c, "process matches", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "matches": matches})
}

func (s *Server) getMatches(c *gin.Context) {
	jobID, err := queryInt(c, "job_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	matches, err := s.service.Matches(c.Request.Context(), jobID)
	if err != nil {
		s.fail(c, "get matches", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "matches": matches})
}

func (s *Server) statistics(c *gin.Context) {
	stats, err := s.service.Statistics(c.Request.Context())
	if err != nil {
		s.fail(c, "get statistics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "statistics": stats})
}

func (s *Server) extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "raw_text is required")
		return
	}

	outcome, err := s.service.Extract(c.Request.Context(), req.RawText)
	if err != nil {
		s.fail(c, "extract job", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "parsed_data": outcome.Job, "source": outcome.Source})
}

func (s *Server) exportMatches(c *gin.Context) {
	jobID, err := queryInt(c, "job_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	matches, err := s.service.Matches(c.Request.Context(), jobID)
	if err != nil {
		s.fail(c, "export matches", err)
		return
	}

	data, err := export.MatchesXLSX(matches)
	if err != nil {
		s.fail(c, "export matches", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="matches.xlsx"`)
	c.Data(http.StatusOK, export.ContentType, data)
}
