package api

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"placement-portal/internal/apperr"
	"placement-portal/internal/dataset"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

// tableResponse 二维表的 JSON 形式，没有数据时返回空数组。
type tableResponse struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
	Total   int      `json:"total"`
}

func newTable(ds *dataset.Dataset) tableResponse {
	if ds == nil {
		return tableResponse{Headers: []string{}, Rows: [][]any{}}
	}
	return tableResponse{Headers: ds.Headers, Rows: ds.Rows, Total: ds.Len()}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := apperr.MessageOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	writeMessage(w, r, status, msg)
}

func writeCSV(w http.ResponseWriter, fileName, body string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}
