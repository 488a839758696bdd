package api

import (
	"encoding/json"
	"net/http"

	"judgecore/pkg/types"

	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Code    int             `json:"code"`
	Kind    types.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":5,"kind":"External","message":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError writes err as {code, kind, message}. Errors that are not
// APIErrors are reported as External.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := types.AsAPIError(err)
	if apiErr.Kind == types.KindExternal {
		logrus.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	}
	RespondWithJSON(w, apiErr.HTTPStatus(), ErrorResponse{
		Code:    apiErr.Code(),
		Kind:    apiErr.Kind,
		Message: apiErr.Message,
	})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return types.InvalidArgument("Invalid request body: %v", err)
	}
	return nil
}
