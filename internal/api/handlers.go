package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kagome/pkg/buildinfo"
	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/pipeline"
	"github.com/matzehuels/kagome/pkg/strand"
)

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

type healthBody struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	overrides, refresh, err := parseCreateOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body := r.Body
	if s.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	m, err := mesh.ReadJSON(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeErrorStatus(w, http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidInput,
				"mesh document exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		s.writeError(w, err)
		return
	}

	opts := s.defaults.Options(overrides)
	opts.Mesh = m
	opts.Refresh = refresh
	opts.Logger = s.logger
	// The API serves the analysis document; artifacts come from the strand
	// routes on demand.
	opts.Formats = []string{pipeline.FormatJSON}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), res.Analysis); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/analyses/"+res.ID)
	writeJSON(w, http.StatusCreated, res.Analysis)
}

// parseCreateOptions reads the POST query. Only parameters present in the
// query override the server defaults. Setting k implies convert.
func parseCreateOptions(r *http.Request) (o pipeline.Overrides, refresh bool, err error) {
	q := r.URL.Query()

	if o.Convert, err = boolParam(q, "convert"); err != nil {
		return o, false, err
	}
	if k := q.Get("k"); k != "" {
		level, err := strconv.Atoi(k)
		if err != nil {
			return o, false, errors.New(errors.ErrCodeInvalidInput, "k must be an integer, got %q", k)
		}
		if err := pipeline.ValidateLevel(level); err != nil {
			return o, false, err
		}
		o.Level = &level
	}
	if o.Frames, err = boolParam(q, "frames"); err != nil {
		return o, false, err
	}
	force, err := boolParam(q, "refresh")
	if err != nil {
		return o, false, err
	}
	return o, force != nil && *force, nil
}

// boolParam parses an optional boolean query parameter. It returns nil
// when the parameter is absent or empty.
func boolParam(q url.Values, name string) (*bool, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid boolean %s=%q", name, v)
	}
	return &b, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": list})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) strandGraph(r *http.Request) (*strand.Graph, strand.Options, error) {
	a, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, strand.Options{}, err
	}
	if a.Strands == nil {
		return nil, strand.Options{}, errors.New(errors.ErrCodeNotFound, "analysis %s has no strand graph", a.ID)
	}

	opts := strand.Options{Scale: s.defaults.Scale, Detailed: s.defaults.Detailed}
	q := r.URL.Query()
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			return nil, opts, errors.New(errors.ErrCodeInvalidInput, "scale must be a positive number")
		}
		opts.Scale = scale
	}
	detailed, err := boolParam(q, "detailed")
	if err != nil {
		return nil, opts, err
	}
	if detailed != nil {
		opts.Detailed = *detailed
	}
	if opts.Scale <= 0 {
		opts.Scale = pipeline.DefaultScale
	}
	return a.Strands, opts, nil
}

func (s *Server) handleStrandsDOT(w http.ResponseWriter, r *http.Request) {
	g, opts, err := s.strandGraph(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(strand.ToDOT(g, opts)))
}

func (s *Server) handleStrandsSVG(w http.ResponseWriter, r *http.Request) {
	g, opts, err := s.strandGraph(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	svg, err := strand.RenderSVG(r.Context(), strand.ToDOT(g, opts))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write(svg)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	code, msg := errors.GetCode(err), errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		if code == "" {
			code, msg = errors.ErrCodeInternal, "internal error"
		}
	}
	writeErrorStatus(w, status, code, msg)
}

func writeErrorStatus(w http.ResponseWriter, status int, code errors.Code, msg string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = msg
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
