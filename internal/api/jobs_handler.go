package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"judgecore/internal/models"
	"judgecore/internal/services"
	"judgecore/pkg/types"

	"github.com/go-chi/chi/v5"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(js *services.JobService) *JobHandler {
	return &JobHandler{jobService: js}
}

func (h *JobHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.createJob)
	r.Get("/", h.listJobs)
	r.Get("/{jobID}", h.getJob)
	r.Put("/{jobID}", h.rejudgeJob)
}

func (h *JobHandler) createJob(w http.ResponseWriter, r *http.Request) {
	var req types.PostJobRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, r, err)
		return
	}

	job, err := h.jobService.Submit(r.Context(), &req)
	if err != nil {
		RespondWithError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, job)
}

func (h *JobHandler) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "jobID", "Job")
	if err != nil {
		RespondWithError(w, r, err)
		return
	}

	job, err := h.jobService.Get(r.Context(), id)
	if err != nil {
		RespondWithError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, job)
}

func (h *JobHandler) rejudgeJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "jobID", "Job")
	if err != nil {
		RespondWithError(w, r, err)
		return
	}

	job, err := h.jobService.Rejudge(r.Context(), id)
	if err != nil {
		RespondWithError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, job)
}

func (h *JobHandler) listJobs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseJobFilter(r.URL.RawQuery)
	if err != nil {
		RespondWithError(w, r, err)
		return
	}

	jobs, err := h.jobService.List(r.Context(), filter)
	if err != nil {
		RespondWithError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, jobs)
}

// parseJobFilter maps query parameters onto a JobFilter. Only numeric
// parameters can be malformed; time bounds, state and result are passed
// through and simply match nothing when they are not valid.
func parseJobFilter(rawQuery string) (*types.JobFilter, error) {
	var (
		filter types.JobFilter
		err    error
	)
	q, _ := url.ParseQuery(rawQuery)
	// a literal '+' in a language name such as C++ is not a space
	literal, _ := url.ParseQuery(strings.ReplaceAll(rawQuery, "+", "%2B"))

	if filter.UserID, err = queryUint32(q, "user_id"); err != nil {
		return nil, err
	}
	if filter.ContestID, err = queryUint32(q, "contest_id"); err != nil {
		return nil, err
	}
	if filter.ProblemID, err = queryUint32(q, "problem_id"); err != nil {
		return nil, err
	}

	filter.UserName = queryString(q, "user_name")
	filter.Language = queryString(literal, "language")
	filter.From = queryString(q, "from")
	filter.To = queryString(q, "to")

	if s := queryString(q, "state"); s != nil {
		state := models.JobState(*s)
		filter.State = &state
	}
	if s := queryString(q, "result"); s != nil {
		result := models.JobResult(*s)
		filter.Result = &result
	}

	return &filter, nil
}

func queryString(q url.Values, key string) *string {
	if _, ok := q[key]; !ok {
		return nil
	}
	v := q.Get(key)
	return &v
}

func queryUint32(q url.Values, key string) (*uint32, error) {
	s := queryString(q, key)
	if s == nil {
		return nil, nil
	}
	v, err := strconv.ParseUint(*s, 10, 32)
	if err != nil {
		return nil, types.InvalidArgument("Invalid %s: %s", key, *s)
	}
	id := uint32(v)
	return &id, nil
}

// pathID reads a numeric id from the route. An id that is not a number
// cannot name an existing entity, so it is reported as NotFound.
func pathID(r *http.Request, param, entity string) (uint32, error) {
	raw := chi.URLParam(r, param)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, types.NotFound("%s %s not found.", entity, raw)
	}
	return uint32(v), nil
}
