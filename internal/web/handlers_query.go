package web

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/linequery/internal/query"
	"github.com/go-playground/validator/v10"
)

// queryParams is the validated form of a query request.
type queryParams struct {
	FileName string `validate:"required,max=4096"`
	Pairs    []query.Pair
}

// parseQueryParams reads file_name and the cmdN/valueN pairs. Every cmdN
// present is used, in increasing N, so cmd2 applies even without cmd1. A
// missing valueN is an empty argument. Keys such as cmd0 or cmdx are ignored.
func parseQueryParams(values url.Values) queryParams {
	p := queryParams{FileName: values.Get("file_name")}

	var indexes []int
	for key := range values {
		suffix, ok := strings.CutPrefix(key, "cmd")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 1 || strconv.Itoa(n) != suffix {
			continue
		}
		indexes = append(indexes, n)
	}
	slices.Sort(indexes)

	for _, n := range indexes {
		idx := strconv.Itoa(n)
		p.Pairs = append(p.Pairs, query.Pair{
			Name:  values.Get("cmd" + idx),
			Value: values.Get("value" + idx),
		})
	}
	return p
}

// validateParams maps validation failures onto query errors so they share the
// error catalogue. An over-long name cannot exist in the data directory.
func (s *Server) validateParams(p queryParams) error {
	err := s.validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() != "FileName" {
				continue
			}
			if fe.Tag() == "required" {
				return query.ErrMissingFile
			}
			return query.ErrNotFound
		}
	}
	return err
}

// handleQuery runs a line query and writes the result as a JSON array.
//
// GET /perform_query?file_name=F&cmd1=filter&value1=x&cmd2=limit&value2=3
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	params := parseQueryParams(r.URL.Query())
	if err := s.validateParams(params); err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Query(ctx, query.Request{
		FileName: params.FileName,
		Commands: query.ParseCommands(params.Pairs),
	})
	if err != nil {
		if errors.Is(err, query.ErrTooManyQueries) {
			w.Header().Set("Retry-After", "1")
		}
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("X-Query-ID", result.ID.String())
	w.Header().Set("Server-Timing", "query;dur="+strconv.FormatFloat(float64(result.Duration)/float64(time.Millisecond), 'f', 2, 64))
	writeJSON(w, http.StatusOK, result.Lines)
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status  string              `json:"status"`
	Limiter query.LimiterStatus `json:"limiter"`
	History bool                `json:"history"`
}

// handleHealth reports liveness and the query limiter's state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Limiter: s.service.LimiterStatus(),
		History: s.history != nil,
	})
}
