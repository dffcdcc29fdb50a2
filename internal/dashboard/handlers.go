package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dropout-risk/internal/common"
	"dropout-risk/internal/dataset"
	"dropout-risk/internal/ml"

	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleDashboard renders the page for the caller's session. The optional
// student query parameter selects the drill-down record.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	upload := s.sessions.Get(id)
	data := s.pageData(upload)

	status := http.StatusOK
	if raw := r.URL.Query().Get("student"); raw != "" && upload != nil {
		if err := s.selectStudent(&data, upload, raw); err != nil {
			data.Error = err.Error()
			status = http.StatusBadRequest
		}
	}

	s.render(w, status, data)
}

// handleUpload scores one uploaded file and stores it in the session. A
// rejected file leaves the session's previous upload in place.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.recordUpload("rejected")
		data := s.pageData(s.sessions.Get(id))
		data.Error = uploadErrorMessage(err)
		s.render(w, statusForReadError(err), data)
		return
	}
	defer file.Close()

	table, result, err := s.scoreReader(r, file, dataset.FormatFromName(header.Filename))
	if err != nil {
		s.recordUpload("rejected")
		log.Warn().Err(err).Str("file", header.Filename).Msg("Upload rejected")

		data := s.pageData(s.sessions.Get(id))
		data.Error = err.Error()
		s.render(w, statusForScoreError(err), data)
		return
	}

	s.sessions.Put(id, &Upload{
		FileName: header.Filename,
		Table:    table,
		Result:   result,
		ScoredAt: time.Now(),
	})
	s.recordUpload("accepted")
	s.updateSessionGauge()

	log.Info().
		Str("file", header.Filename).
		Int("rows", result.Summary.Total).
		Int("high", result.Summary.High).
		Msg("Upload scored")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleScoreAPI scores a CSV body, an XLSX body or a multipart file field
// and returns the scored rows as JSON.
func (s *Server) handleScoreAPI(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	var (
		body   io.Reader
		format = dataset.FormatCSV
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, statusForReadError(err), err)
			return
		}
		defer file.Close()
		body, format = file, dataset.FormatFromName(header.Filename)
	case xlsxContentType:
		body, format = r.Body, dataset.FormatXLSX
	default:
		body = r.Body
	}

	_, result, err := s.scoreReader(r, body, format)
	if err != nil {
		writeError(w, statusForScoreError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleImportanceAPI returns the top features, k=8 unless overridden.
func (s *Server) handleImportanceAPI(w http.ResponseWriter, r *http.Request) {
	k := s.opts.TopFeatures
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid k %q", raw))
			return
		}
		k = n
	}
	writeJSON(w, http.StatusOK, ml.TopFeatures(s.importances, k))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	p := s.scorer.Pipeline()
	health := common.HealthResponse{
		Status:       "ok",
		TrainedAt:    p.Metadata.TrainedAt.Format(time.RFC3339),
		Features:     p.Preprocessor.Width(),
		Trees:        len(p.Forest.Trees),
		Sessions:     s.sessions.Len(),
		UptimeSecond: time.Since(s.started).Seconds(),
	}
	if s.metricsWrapper != nil {
		health.FailureRate = s.metricsWrapper.Metrics().FailureRate()
	}
	writeJSON(w, http.StatusOK, health)
}

// scoreReader buffers the upload, decodes it and scores it.
func (s *Server) scoreReader(r *http.Request, src io.Reader, format dataset.Format) (*dataset.Table, *ml.ScoreResult, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, nil, err
	}

	table, err := dataset.Read(bytes.NewReader(raw), format)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read %s file: %w", format, err)
	}

	result, err := s.scorer.Score(r.Context(), table)
	if err != nil {
		return nil, nil, err
	}
	return table, result, nil
}

func (s *Server) pageData(u *Upload) PageData {
	data := PageData{
		TopN:       s.opts.TopStudents,
		Thresholds: [3]float64{ml.HighRiskThreshold, ml.MediumRiskThreshold, ml.DecisionThreshold},
	}
	if u == nil {
		return data
	}

	data.HasUpload = true
	data.FileName = u.FileName
	data.Summary = u.Result.Summary
	data.Columns = u.Table.Header

	for _, rec := range topRecords(u.Result.Records, s.opts.TopStudents) {
		data.Top = append(data.Top, studentRow(u, rec))
	}

	data.StudentIDs = make([]int, len(u.Result.Records))
	for i, rec := range u.Result.Records {
		data.StudentIDs[i] = rec.StudentID
	}
	if len(u.Result.Records) > 0 {
		first := studentRow(u, u.Result.Records[0])
		data.Selected = &first
	}

	data.Bars, data.ChartHeight = buildBars(ml.TopFeatures(s.importances, s.opts.TopFeatures))

	if u.Result.Shift != nil {
		data.Warnings = u.Result.Shift.Warnings()
	}
	return data
}

func (s *Server) selectStudent(data *PageData, u *Upload, raw string) error {
	if u == nil || u.Result == nil {
		return fmt.Errorf("no scored upload to select student %q from", raw)
	}
	sid, err := strconv.Atoi(raw)
	if err != nil || sid < 0 || sid >= len(u.Result.Records) {
		return fmt.Errorf("unknown student id %q", raw)
	}
	row := studentRow(u, u.Result.Records[sid])
	data.Selected = &row
	return nil
}

func (s *Server) render(w http.ResponseWriter, status int, data PageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		log.Error().Err(err).Msg("Failed to render dashboard")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func statusForReadError(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func statusForScoreError(err error) int {
	if ml.IsSchemaError(err) {
		return http.StatusUnprocessableEntity
	}
	return statusForReadError(err)
}

func uploadErrorMessage(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("file is larger than %d bytes", tooLarge.Limit)
	}
	if errors.Is(err, http.ErrMissingFile) {
		return "choose a CSV or XLSX file to upload"
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := common.ErrorResponse{Error: err.Error()}

	var schemaErr *ml.SchemaError
	if errors.As(err, &schemaErr) {
		resp.Schema = true
		resp.Column = schemaErr.Column
		resp.Row = schemaErr.Row
		resp.Value = schemaErr.Value
	}
	if strings.TrimSpace(resp.Error) == "" {
		resp.Error = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}
