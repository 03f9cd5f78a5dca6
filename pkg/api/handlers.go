package api

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stitchgraph/pkg/buildinfo"
	"github.com/matzehuels/stitchgraph/pkg/errors"
	pio "github.com/matzehuels/stitchgraph/pkg/io"
	"github.com/matzehuels/stitchgraph/pkg/pipeline"
	"github.com/matzehuels/stitchgraph/pkg/storage"
)

// query holds the pattern and render parameters of a request.
type query struct {
	Pattern     string  `query:"pattern" validate:"omitempty,max=128"`
	Index       int     `query:"index" validate:"gte=0"`
	Format      string  `query:"format" validate:"omitempty,oneof=svg png pdf json ayab dot order-svg order-pdf"`
	Style       string  `query:"style" validate:"omitempty,oneof=simple plain"`
	Zoom        float64 `query:"zoom" validate:"gte=0,lte=500"`
	Scale       float64 `query:"scale" validate:"gte=0,lte=10"`
	Connections bool    `query:"connections"`
	Detailed    bool    `query:"detailed"`
	Refresh     bool    `query:"refresh"`
}

func (s *Server) parseQuery(r *http.Request) (pipeline.Options, error) {
	v := r.URL.Query()
	var q query
	var err error
	q.Pattern = v.Get("pattern")
	q.Format = v.Get("format")
	q.Style = v.Get("style")
	num := func(name string, dst *float64) {
		if raw := v.Get(name); raw != "" && err == nil {
			if *dst, err = strconv.ParseFloat(raw, 64); err != nil {
				err = errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid %s %q", name, raw)
			}
		}
	}
	flag := func(name string, dst *bool) {
		if raw := v.Get(name); raw != "" && err == nil {
			if *dst, err = strconv.ParseBool(raw); err != nil {
				err = errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid %s %q", name, raw)
			}
		}
	}
	if raw := v.Get("index"); raw != "" {
		if q.Index, err = strconv.Atoi(raw); err != nil {
			err = errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid index %q", raw)
		}
	}
	num("zoom", &q.Zoom)
	num("scale", &q.Scale)
	flag("connections", &q.Connections)
	flag("detailed", &q.Detailed)
	flag("refresh", &q.Refresh)
	if err != nil {
		return pipeline.Options{}, err
	}
	if err := s.validate.Struct(q); err != nil {
		return pipeline.Options{}, invalid(err)
	}

	return pipeline.Options{
		Pattern:     q.Pattern,
		Index:       q.Index,
		Format:      q.Format,
		Style:       q.Style,
		Zoom:        q.Zoom,
		Scale:       q.Scale,
		Connections: q.Connections,
		Detailed:    q.Detailed,
		Refresh:     q.Refresh,
		Logger:      s.logger,
	}, nil
}

// bodyFormat picks the document format from the Content-Type.
func bodyFormat(r *http.Request) pio.Format {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case strings.Contains(mt, "yaml"):
		return pio.FormatYAML
	case mt == "image/png":
		return pio.FormatPNG
	}
	return pio.FormatJSON
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty request body")
	}
	return data, nil
}

// loadPosted decodes the posted pattern set.
func (s *Server) loadPosted(w http.ResponseWriter, r *http.Request) (*pipeline.Document, pio.Format, []byte, error) {
	data, err := readBody(w, r)
	if err != nil {
		return nil, "", nil, err
	}
	format := bodyFormat(r)
	doc, err := s.runner.Load(r.Context(), data, format)
	if err != nil {
		return nil, "", nil, err
	}
	return doc, format, data, nil
}

// loadStored decodes the stored set named by the {id} parameter.
func (s *Server) loadStored(ctx context.Context, r *http.Request) (*pipeline.Document, error) {
	rec, err := s.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	return s.runner.Load(ctx, rec.Content, pio.Format(rec.Format))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

type walkResponse struct {
	Pattern string   `json:"pattern"`
	Order   []string `json:"order"`
}

func (s *Server) handleWalk(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	doc, _, _, err := s.loadPosted(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.runner.Select(doc, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	order, err := s.runner.Walk(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := walkResponse{Pattern: p.ID().String(), Order: make([]string, len(order))}
	for i, row := range order {
		resp.Order[i] = row.ID().String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.renderPosted(w, r, pipeline.FormatJSON)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.renderPosted(w, r, "")
}

// renderPosted renders the posted set; a non-empty format overrides the query.
func (s *Server) renderPosted(w http.ResponseWriter, r *http.Request, format string) {
	opts, err := s.parseQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if format != "" {
		opts.Format = format
	}
	doc, _, _, err := s.loadPosted(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.execute(w, r, doc, opts)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, doc *pipeline.Document, opts pipeline.Options) {
	download := r.URL.Query().Get("download")
	if download != "" {
		if err := errors.ValidatePath(download); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	res, err := s.runner.Execute(r.Context(), doc, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(res.Format))
	if download != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": download}))
	}
	if res.CacheInfo.Hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifact)
}

type createResponse struct {
	ID       string   `json:"id"`
	Patterns []string `json:"patterns"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if err := s.validate.Var(name, "omitempty,max=200,printascii"); err != nil {
		s.fail(w, r, invalid(err))
		return
	}
	doc, format, data, err := s.loadPosted(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rec := &storage.Record{Name: name, Format: string(format), Content: data, Hash: doc.Hash}
	for _, p := range doc.Set.Patterns() {
		rec.Patterns = append(rec.Patterns, p.ID().String())
	}
	if rec.Name == "" && len(rec.Patterns) > 0 {
		rec.Name = doc.Set.Patterns()[0].Name()
	}
	id, err := s.store.Save(r.Context(), rec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/patterns/"+id)
	writeJSON(w, http.StatusCreated, createResponse{ID: id, Patterns: rec.Patterns})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"patterns": recs})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ct := "application/json"
	switch pio.Format(rec.Format) {
	case pio.FormatYAML:
		ct = "application/yaml"
	case pio.FormatPNG:
		ct = "image/png"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.Content)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStoredLayout(w http.ResponseWriter, r *http.Request) {
	s.renderStored(w, r, pipeline.FormatJSON)
}

func (s *Server) handleStoredRender(w http.ResponseWriter, r *http.Request) {
	s.renderStored(w, r, "")
}

func (s *Server) renderStored(w http.ResponseWriter, r *http.Request, format string) {
	opts, err := s.parseQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if format != "" {
		opts.Format = format
	}
	doc, err := s.loadStored(r.Context(), r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.execute(w, r, doc, opts)
}
