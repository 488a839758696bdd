package api

import (
	"net/http"

	"judgecore/internal/services"
	"judgecore/pkg/types"

	"github.com/go-chi/chi/v5"
)

type ContestHandler struct {
	contestService  *services.ContestService
	ranklistService *services.RanklistService
}

func NewContestHandler(cs *services.ContestService, rs *services.RanklistService) *ContestHandler {
	return &ContestHandler{contestService: cs, ranklistService: rs}
}

func (h *ContestHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.saveContest)
	r.Get("/", h.listContests)
	r.Get("/{contestID}", h.getContest)
	r.Get("/{contestID}/ranklist", h.getRanklist)
}

func (h *ContestHandler) saveContest(w http.ResponseWriter, r *http.Request) {
	var req types.PostContestRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, r, err)
		return
	}

	contest, err := h.contestService.Save(r.Context(), &req)
	if err != nil {
		RespondWithError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, contest)
}

func (h *ContestHandler) listContests(w http.ResponseWriter, r *http.Request) {
	contests, err := h.contestService.List(r.Context())
	if err != nil {
		RespondWithError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, contests)
}

func (h *ContestHandler) getContest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "contestID", "Contest")
	if err != nil {
		RespondWithError(w, r, err)
		return
	}

	contest, err := h.contestService.Get(r.Context(), id)
	if err != nil {
		RespondWithError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, contest)
}

func (h *ContestHandler) getRanklist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "contestID", "Contest")
	if err != nil {
		RespondWithError(w, r, err)
		return
	}

	q := r.URL.Query()
	ranklist, err := h.ranklistService.Compute(r.Context(), id, q.Get("scoring_rule"), q.Get("tie_breaker"))
	if err != nil {
		RespondWithError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, ranklist)
}
