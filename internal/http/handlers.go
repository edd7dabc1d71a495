package http

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"ledger/internal/core"
	"ledger/internal/interchange"
	"ledger/internal/log"
	"ledger/internal/table"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeFailure(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.memo.Summary(snap, s.labelsFor(r)))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeFailure(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.memo.Categories(snap.OfficeExpenses, s.labelsFor(r)))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	t, err := entityParam(r)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	q, err := parseQuery(r, s.labelsFor(r))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, table.Apply(table.RowsOf(snap, t), q))
}

// handleExport downloads the rows of one collection that match the list
// filters, in list order, without pagination.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	t, err := entityParam(r)
	if err != nil {
		writeFailure(w, r, log.OpExport, err)
		return
	}
	labels := s.labelsFor(r)
	q, err := parseQuery(r, labels)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeFailure(w, r, log.OpExport, err)
		return
	}

	rows := table.FilterDateRange(table.RowsOf(snap, t), q.DateField, q.From, q.To)
	rows = table.Search(rows, q.Search)
	rows = table.Sort(rows, q.SortKey, q.Direction, q.Locale)

	wb, err := interchange.Export(t, rows, labels, s.now())
	if err != nil {
		writeFailure(w, r, log.OpExport, err)
		return
	}
	s.writeWorkbook(w, r, wb)
}

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeFailure(w, r, log.OpExport, err)
		return
	}
	wb, err := interchange.ExportAll(snap, s.labelsFor(r), s.now())
	if err != nil {
		writeFailure(w, r, log.OpExport, err)
		return
	}
	s.writeWorkbook(w, r, wb)
}

// writeWorkbook encodes before writing headers so a failed encode still gets
// an error status.
func (s *Server) writeWorkbook(w http.ResponseWriter, r *http.Request, wb *interchange.Workbook) {
	var buf bytes.Buffer
	if _, err := wb.WriteTo(&buf); err != nil {
		writeFailure(w, r, log.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": wb.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleImport accepts a multipart upload in the "file" field. With
// ?preview=1 the decoded records are returned and nothing is stored.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	t, err := entityParam(r)
	if err != nil {
		writeFailure(w, r, log.OpImport, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.importMaxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			writeFailure(w, r, log.OpImport, err)
			return
		}
		writeError(w, r, http.StatusBadRequest, "missing upload in form field \"file\"")
		return
	}
	defer file.Close()

	logger := log.FromContext(r.Context())
	if preview, _ := strconv.ParseBool(r.URL.Query().Get("preview")); preview {
		p, err := s.importer.Preview(file, header.Filename, t)
		if err != nil {
			writeFailure(w, r, log.OpPreview, err)
			return
		}
		writeJSON(w, r, http.StatusOK, p)
		return
	}

	res, err := s.importer.Import(r.Context(), file, header.Filename, t)
	if err != nil {
		var ie *interchange.ImportError
		if errors.As(err, &ie) {
			logger.WarnContext(r.Context(), "Import rejected",
				log.NewFields().WithImport(string(t), header.Filename, 0).WithError(err).ToSlice()...)
		}
		writeFailure(w, r, log.OpImport, err)
		return
	}
	s.memo.Invalidate()

	logger.InfoContext(r.Context(), "Import completed",
		log.NewFields().WithImport(string(t), header.Filename, res.Rows).ToSlice()...)
	writeJSON(w, r, http.StatusCreated, res)
}

func (s *Server) handleAttachments(w http.ResponseWriter, r *http.Request) {
	t, err := entityParam(r)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	list, err := s.store.Attachments(r.Context(), r.PathValue("id"), t)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	if list == nil {
		list = []core.Attachment{}
	}
	writeJSON(w, r, http.StatusOK, list)
}
