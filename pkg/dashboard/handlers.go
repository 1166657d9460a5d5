package dashboard

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/recadm/recadm/pkg/httputil"
	"github.com/recadm/recadm/pkg/portability"
	"github.com/recadm/recadm/pkg/record"
	"github.com/recadm/recadm/pkg/table"
)

// maxImportSize bounds an uploaded CSV file.
const maxImportSize = 10 << 20

// cellView is one editable cell of a table row.
type cellView struct {
	Column string
	Value  string
}

// rowView is one rendered table row. Rows without an id are shown
// read-only: they cannot be updated or deleted remotely.
type rowView struct {
	ID        string
	CreatedAt string
	Cells     []cellView
}

// viewData feeds the index template.
type viewData struct {
	APIURL  string
	Healthy bool
	Total   int
	Today   int
	Shown   int
	Columns []string
	Rows    []rowView
	Query   string
	Where   string
	Message string
	Error   string
}

// previewData feeds the import preview template.
type previewData struct {
	APIURL   string
	Filename string
	Columns  []string
	Rows     []record.Fields
	Total    int
	RawCSV   string
	Require  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := viewData{
		APIURL:  s.apiURL,
		Query:   q.Get("q"),
		Where:   q.Get("where"),
		Message: q.Get("msg"),
		Error:   q.Get("err"),
	}
	data.Healthy, _ = s.client.Health(r.Context())

	model, err := s.load(r)
	if err != nil {
		// Render the page anyway so the operator sees the failure
		// instead of a blank 500.
		data.Error = joinFlash(data.Error, "could not load records: "+err.Error())
		s.render(w, "index.html.tmpl", data)
		return
	}

	data.Total = model.Total()
	data.Today = model.CreatedToday(time.Now())
	data.Columns = model.Columns()

	records := model.Filter(data.Query)
	if data.Where != "" {
		pred, perr := table.CompilePredicate(data.Where)
		if perr != nil {
			data.Error = joinFlash(data.Error, perr.Error())
		} else {
			filtered := records[:0:0]
			for _, rec := range records {
				if pred.Match(rec) {
					filtered = append(filtered, rec)
				}
			}
			records = filtered
		}
	}

	data.Shown = len(records)
	for _, rec := range records {
		row := rowView{ID: rec.ID, CreatedAt: table.DisplayCreatedAt(rec)}
		for _, col := range data.Columns {
			if record.IsReserved(col) {
				continue
			}
			v, _ := rec.Fields.Get(col)
			row.Cells = append(row.Cells, cellView{Column: col, Value: table.CellString(v)})
		}
		data.Rows = append(data.Rows, row)
	}

	s.render(w, "index.html.tmpl", data)
}

// handleAdd creates a record from the add form. Blank inputs are omitted
// from the payload so the server does not store empty fields.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, "", "bad form data: "+err.Error())
		return
	}

	fields := record.NewFields()
	if name := strings.TrimSpace(r.PostForm.Get("name")); name != "" {
		fields.Set("name", name)
	}
	if note := strings.TrimSpace(r.PostForm.Get("note")); note != "" {
		fields.Set("note", note)
	}
	extra, err := parseExtraFields(r.PostForm.Get("extra"))
	if err != nil {
		s.redirect(w, r, "", err.Error())
		return
	}
	for _, k := range extra.Keys() {
		v, _ := extra.Get(k)
		fields.Set(k, v)
	}
	if fields.Len() == 0 {
		s.redirect(w, r, "", "nothing to create: all fields are blank")
		return
	}

	created, err := s.client.Create(r.Context(), fields)
	if err != nil {
		s.redirect(w, r, "", err.Error())
		return
	}
	s.cache.Invalidate()
	s.log.Info("record created", "id", created.ID)
	s.redirect(w, r, "created record "+created.ID, "")
}

// handleSave diffs the posted table against the cached snapshot and
// issues one update per changed row. Row failures are independent.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, "", "bad form data: "+err.Error())
		return
	}
	model, err := s.load(r)
	if err != nil {
		s.redirect(w, r, "", "could not load records: "+err.Error())
		return
	}

	before := model.ByID()
	after := s.editedSnapshot(r, model, before)

	changes := table.Diff(before, after)
	if len(changes) == 0 {
		s.redirect(w, r, "no changes to save", "")
		return
	}

	var saved, failed int
	var firstErr error
	for _, ch := range changes {
		if _, err := s.client.Update(r.Context(), ch.ID, ch.Fields); err != nil {
			s.log.Warn("update failed", "id", ch.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			failed++
			continue
		}
		saved++
	}
	s.cache.Invalidate()

	msg := fmt.Sprintf("saved %d change(s)", saved)
	errMsg := ""
	if failed > 0 {
		errMsg = fmt.Sprintf("%d update(s) failed: %v", failed, firstErr)
	}
	s.redirect(w, r, msg, errMsg)
}

// editedSnapshot rebuilds the row map from posted cell inputs. A cell
// whose posted text matches the display form of the current value keeps
// the current value, so unchanged numeric cells do not diff as strings.
func (s *Server) editedSnapshot(r *http.Request, model *table.Model, before map[string]record.Fields) map[string]record.Fields {
	after := make(map[string]record.Fields, len(before))
	cols := model.Columns()

	for _, id := range r.PostForm["id"] {
		prev, ok := before[id]
		if !ok {
			continue
		}
		fields := record.NewFields()
		for _, col := range cols {
			if record.IsReserved(col) {
				continue
			}
			posted, present := postedCell(r, id, col)
			if !present {
				continue
			}
			old, had := prev.Get(col)
			if had && table.CellString(old) == posted {
				fields.Set(col, old)
				continue
			}
			if !had && posted == "" {
				// Never grow a row with blank fields it did not have.
				continue
			}
			fields.Set(col, posted)
		}
		after[id] = fields
	}
	return after
}

func postedCell(r *http.Request, id, col string) (string, bool) {
	vals, ok := r.PostForm["f."+id+"."+col]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// handleDelete removes every checked row, one call per id.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, "", "bad form data: "+err.Error())
		return
	}
	ids := r.PostForm["delete"]
	if len(ids) == 0 {
		s.redirect(w, r, "", "no rows selected for deletion")
		return
	}

	var deleted, failed int
	var firstErr error
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := s.client.Delete(r.Context(), id); err != nil {
			s.log.Warn("delete failed", "id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			failed++
			continue
		}
		deleted++
	}
	s.cache.Invalidate()

	msg := fmt.Sprintf("deleted %d record(s)", deleted)
	errMsg := ""
	if failed > 0 {
		errMsg = fmt.Sprintf("%d delete(s) failed: %v", failed, firstErr)
	}
	s.redirect(w, r, msg, errMsg)
}

// handleImport has two phases. An upload renders a preview of the parsed
// rows with the raw CSV carried in a hidden field; confirming that form
// posts back with apply=1 and runs the import.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// The confirm form posts urlencoded, not multipart.
	if err := r.ParseMultipartForm(maxImportSize); err != nil && err != http.ErrNotMultipart {
		s.redirect(w, r, "", "bad upload: "+err.Error())
		return
	}

	if r.PostFormValue("apply") == "1" {
		s.applyImport(w, r)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.redirect(w, r, "", "no CSV file uploaded")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		s.redirect(w, r, "", "could not read upload: "+err.Error())
		return
	}

	data, err := portability.ParseCSV(strings.NewReader(string(raw)))
	if err != nil {
		s.redirect(w, r, "", "could not parse CSV: "+err.Error())
		return
	}

	s.render(w, "preview.html.tmpl", previewData{
		APIURL:   s.apiURL,
		Filename: header.Filename,
		Columns:  data.Header,
		Rows:     data.Preview(20),
		Total:    len(data.Rows),
		RawCSV:   string(raw),
		Require:  strings.Join(s.require, ", "),
	})
}

func (s *Server) applyImport(w http.ResponseWriter, r *http.Request) {
	raw := r.PostFormValue("csv")
	data, err := portability.ParseCSV(strings.NewReader(raw))
	if err != nil {
		s.redirect(w, r, "", "could not parse CSV: "+err.Error())
		return
	}

	im := &portability.Importer{Client: s.client, Require: s.require, Logger: s.log}
	res := im.Run(r.Context(), data.Rows)
	s.cache.Invalidate()

	msg := fmt.Sprintf("import finished: %d created, %d skipped, %d failed", res.Created, res.Skipped, res.Failed)
	errMsg := ""
	if res.Failed > 0 {
		errMsg = fmt.Sprintf("%d row(s) failed to import", res.Failed)
	}
	s.redirect(w, r, msg, errMsg)
}

// handleRefresh drops the cached snapshot so the next view reloads.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.cache.Invalidate()
	s.redirect(w, r, "refreshed", "")
}

// handleExport streams the whole collection as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	model, err := s.load(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadGateway, "fetch_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)
	if err := portability.ExportCSV(w, model.Records()); err != nil {
		s.log.Error("export failed", "error", err)
	}
}

// handleHealthz reports the dashboard's own liveness and the upstream
// API's reachability.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	healthy, payload := s.client.Health(r.Context())
	httputil.WriteOK(w, map[string]any{
		"dashboard": "ok",
		"api":       map[string]any{"healthy": healthy, "response": payload},
	})
}

// handleAPIRecords exposes the current snapshot as JSON for scripts.
func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	model, err := s.load(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadGateway, "fetch_failed", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, model.Records())
}

// render executes a template, falling back to a plain 500 on failure.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("template render failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// redirect sends the browser back to the table view, carrying the active
// filters and any flash messages in the query string.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, msg, errMsg string) {
	v := url.Values{}
	if q := r.FormValue("q"); q != "" {
		v.Set("q", q)
	}
	if where := r.FormValue("where"); where != "" {
		v.Set("where", where)
	}
	if msg != "" {
		v.Set("msg", msg)
	}
	if errMsg != "" {
		v.Set("err", errMsg)
	}
	target := "/"
	if enc := v.Encode(); enc != "" {
		target += "?" + enc
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// parseExtraFields parses "key=value" lines from the add form's free-form
// field box. Blank lines are skipped; blank values are omitted; reserved
// member names are rejected.
func parseExtraFields(text string) (record.Fields, error) {
	fields := record.NewFields()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" {
			return record.Fields{}, fmt.Errorf("invalid field line %q: want key=value", line)
		}
		if record.IsReserved(key) {
			return record.Fields{}, fmt.Errorf("field name %q is reserved", key)
		}
		if value == "" {
			continue
		}
		fields.Set(key, value)
	}
	return fields, nil
}

func joinFlash(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "; " + b
}

// cellValue is the template helper rendering one field of a parsed row.
func cellValue(f record.Fields, col string) string {
	v, _ := f.Get(col)
	return table.CellString(v)
}
