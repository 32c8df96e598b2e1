package api

import (
	"io"
	"net/http"

	"placement-portal/internal/model"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxUploadSize 名单文件大小上限。
const maxUploadSize = 10 << 20

func (s *server) listJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.portal.SearchJobs(r.URL.Query().Get("q")))
}

func (s *server) getJob(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	job, err := s.portal.Job(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, job)
}

func (s *server) createJob(w http.ResponseWriter, r *http.Request) {
	var in model.Job
	if !decodeJSON(w, r, &in) {
		return
	}
	job, err := s.portal.CreateJob(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("job created", zap.Int("job_id", job.ID), zap.String("admin", adminFrom(r.Context())))
	writeJSON(w, r, http.StatusCreated, job)
}

func (s *server) updateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var in model.Job
	if !decodeJSON(w, r, &in) {
		return
	}
	job, err := s.portal.UpdateJob(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, job)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *server) setJobStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	job, err := s.portal.SetJobStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, job)
}

func (s *server) deleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.portal.DeleteJob(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("job deleted", zap.Int("job_id", id), zap.String("admin", adminFrom(r.Context())))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) getJobShortlist(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	ds, err := s.portal.JobShortlist(id, r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newTable(ds))
}

func (s *server) exportJobShortlist(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	name, body, err := s.portal.ExportJobShortlist(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeCSV(w, name, body)
}

func (s *server) uploadShortlist(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Please upload a file first")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	res, err := s.portal.UploadShortlist(r.Context(), id, header.Filename, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("shortlist uploaded",
		zap.Int("job_id", id),
		zap.String("file", header.Filename),
		zap.Int("rows", res.Rows),
		zap.String("admin", adminFrom(r.Context())))
	writeJSON(w, r, http.StatusCreated, res)
}

func (s *server) clearShortlist(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.portal.ClearShortlist(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) getGlobalShortlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, newTable(s.portal.GlobalShortlist(r.URL.Query().Get("q"))))
}

func (s *server) exportGlobalShortlist(w http.ResponseWriter, r *http.Request) {
	name, body, err := s.portal.ExportGlobalShortlist(r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeCSV(w, name, body)
}

func (s *server) listCompanies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.portal.Companies())
}

func (s *server) getCompanyCandidates(w http.ResponseWriter, r *http.Request) {
	ds, err := s.portal.CompanyCandidates(chi.URLParam(r, "name"), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newTable(ds))
}

func (s *server) exportCompanyShortlist(w http.ResponseWriter, r *http.Request) {
	name, body, err := s.portal.ExportCompanyShortlist(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeCSV(w, name, body)
}
