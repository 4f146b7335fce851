// Package service exposes searches over http.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"electorsearch/internal/components/assert"
	"electorsearch/internal/components/telemetry"
	"electorsearch/internal/permute"
	"electorsearch/internal/scrapers/erms"
	"electorsearch/internal/search"

	"github.com/gin-gonic/gin"
)

const (
	report_service_search_electors = "service.search-electors"
	report_service_search          = "service.search"
	report_service_save            = "service.save-history"
)

// History stores finished searches, *history.Store implements it.
type History interface {
	Save(ctx context.Context, now time.Time, q search.Query, result search.Result) (int64, error)
}

type Options struct {
	Searcher     search.Searcher
	Orchestrator *search.Orchestrator
	// defaults to permute.Default
	Permutations permute.Generator
	// History can be nil, in which case searches are not saved.
	History History
}

type Service struct {
	searcher     search.Searcher
	orchestrator *search.Orchestrator
	permutations permute.Generator
	history      History
	tel          telemetry.API
}

func NewService(opts Options, tel telemetry.API) Service {
	assert.NotNil(opts.Searcher)
	assert.NotNil(opts.Orchestrator)
	assert.NotNil(tel)

	permutations := opts.Permutations
	if permutations.Rules == nil {
		permutations = permute.Default
	}

	return Service{
		searcher:     opts.Searcher,
		orchestrator: opts.Orchestrator,
		permutations: permutations,
		history:      opts.History,
		tel:          telemetry.NewScopedAPI("service", tel),
	}
}

// Handler routes:
//
//	GET /api/assemblies
//	GET /api/permutations?name=
//	GET /api/search-electors?assembly=&name=&relativeName=
//	GET /api/search?assembly=&assembly=...&name=&relativeName=&permutations=&stream=
func (s Service) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/assemblies", s.assemblies)
	api.GET("/permutations", s.permute)
	api.GET("/search-electors", s.searchElectors)
	api.GET("/search", s.search)
	return r
}

const invalidQueryMessage = "Invalid query parameters. Please provide valid 'assembly', 'name', and 'relativeName'."

type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (s Service) assemblies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    erms.Assemblies(),
	})
}

func (s Service) permute(c *gin.Context) {
	name := permute.Normalize(c.Query("name"))
	variants, truncated := s.permutations.ExpandN(name)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      variants,
		"count":     len(variants),
		"truncated": truncated,
	})
}

type searchElectorsResponse struct {
	Success bool                 `json:"success"`
	Data    []erms.ElectorRecord `json:"data"`
	Meta    erms.Meta            `json:"meta"`
}

// searchElectors runs exactly one combination.
func (s Service) searchElectors(c *gin.Context) {
	query := search.Query{
		Assemblies:   []string{c.Query("assembly")},
		Name:         c.Query("name"),
		RelativeName: c.Query("relativeName"),
	}
	err := query.Validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, failure{Message: invalidQueryMessage, Error: err.Error()})
		return
	}

	page, err := s.searcher.Search(c.Request.Context(), erms.Combination{
		Assembly:     query.Assemblies[0],
		Name:         permute.Normalize(query.Name),
		RelativeName: permute.Normalize(query.RelativeName),
	})
	if err != nil {
		s.tel.ReportWarning(report_service_search_electors, err)
		c.JSON(http.StatusBadGateway, failure{
			Message: "An error occurred while processing your request.",
			Error:   err.Error(),
		})
		return
	}

	records := page.Records
	if records == nil {
		records = []erms.ElectorRecord{}
	}
	c.JSON(http.StatusOK, searchElectorsResponse{
		Success: true,
		Data:    records,
		Meta:    page.Meta,
	})
}

type searchParams struct {
	Assemblies   []string `form:"assembly"`
	Name         string   `form:"name"`
	RelativeName string   `form:"relativeName"`
	Permutations bool     `form:"permutations"`
	Stream       bool     `form:"stream"`
}

type searchResponse struct {
	Success   bool                 `json:"success"`
	Data      []erms.ElectorRecord `json:"data"`
	Meta      erms.Meta            `json:"meta"`
	Progress  search.Progress      `json:"progress"`
	Truncated bool                 `json:"truncated"`
	HistoryID int64                `json:"historyId,omitempty"`
}

type streamLine struct {
	Progress *search.Progress `json:"progress,omitempty"`
	Result   *searchResponse  `json:"result,omitempty"`
}

// search runs a whole query. With stream=1 the response is newline delimited
// json, one line per settled combination followed by the final result.
func (s Service) search(c *gin.Context) {
	var params searchParams
	err := c.ShouldBindQuery(&params)
	if err != nil {
		c.JSON(http.StatusBadRequest, failure{Message: invalidQueryMessage, Error: err.Error()})
		return
	}
	query := search.Query{
		Assemblies:      params.Assemblies,
		Name:            params.Name,
		RelativeName:    params.RelativeName,
		UsePermutations: params.Permutations,
	}
	err = query.Validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, failure{Message: invalidQueryMessage, Error: err.Error()})
		return
	}

	var observer search.Observer
	var encoder *json.Encoder
	if params.Stream {
		c.Header("Content-Type", "application/x-ndjson")
		c.Status(http.StatusOK)
		encoder = json.NewEncoder(c.Writer)
		observer = func(p search.Progress) {
			encoder.Encode(streamLine{Progress: &p})
			c.Writer.Flush()
		}
	}

	result, err := s.orchestrator.Search(c.Request.Context(), query, observer)
	if err != nil {
		status := http.StatusBadRequest
		var validationErr *search.ValidationError
		if !errors.As(err, &validationErr) {
			status = http.StatusInternalServerError
			s.tel.ReportBroken(report_service_search, err)
		}
		response := failure{Message: "An error occurred while processing your request.", Error: err.Error()}
		if params.Stream {
			encoder.Encode(response)
			return
		}
		c.JSON(status, response)
		return
	}

	response := searchResponse{
		Success:   true,
		Data:      result.Records,
		Meta:      result.Meta,
		Progress:  result.Progress,
		Truncated: result.Truncated,
	}
	if response.Data == nil {
		response.Data = []erms.ElectorRecord{}
	}
	if s.history != nil {
		id, err := s.history.Save(c.Request.Context(), time.Now(), query, result)
		if err != nil {
			s.tel.ReportBroken(report_service_save, err)
		}
		response.HistoryID = id
	}

	if params.Stream {
		encoder.Encode(streamLine{Result: &response})
		c.Writer.Flush()
		return
	}
	c.JSON(http.StatusOK, response)
}
