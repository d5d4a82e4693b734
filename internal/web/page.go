package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/where2work/internal/chart"
	"github.com/sells-group/where2work/internal/filter"
	"github.com/sells-group/where2work/internal/model"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("index.html").
		Funcs(template.FuncMap{"noun": filter.CompanyNoun}).
		ParseFS(templateFS, "templates/index.html"),
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

type filterControl struct {
	Label   string
	Param   string
	Help    string
	Options []option
}

type companyRow struct {
	Name        string
	EntityType  string
	Location    string
	Band        string
	Industry    string
	Shortlisted bool
}

type pageData struct {
	Version        string
	Query          string
	Metrics        filter.Metrics
	Percent        string
	Filters        []filterControl
	ShortlistCount int
	OthersCount    int
	ShortlistChart string
	AllChart       string
	Companies      []companyRow
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v, err := s.buildView(r.Context(), r)
	if err != nil {
		internalError(w, r, "load shortlist", err)
		return
	}

	query := v.Selection.Query().Encode()
	opts := v.Dataset.Options()
	data := pageData{
		Version:        v.Dataset.Version,
		Query:          query,
		Metrics:        v.Metrics,
		Percent:        v.Metrics.PercentLabel(),
		ShortlistCount: len(v.Shortlist),
		OthersCount:    len(v.Others),
		ShortlistChart: chartURL(ViewShortlist, query),
		AllChart:       chartURL(ViewAll, query),
		Filters: []filterControl{
			{
				Label:   "Company Headquarters",
				Param:   filter.ParamLocation,
				Help:    "Select one or more locations to filter",
				Options: options(opts.Locations, v.Selection.Locations, nil),
			},
			{
				Label:   "Entity Type",
				Param:   filter.ParamEntityType,
				Help:    "Select one or more entity types to filter",
				Options: options(opts.EntityTypes, v.Selection.EntityTypes, model.EntityTypeLabel),
			},
			{
				Label:   "Number of Employees",
				Param:   filter.ParamBand,
				Help:    "Select one or more band sizes to filter",
				Options: options(opts.Bands, v.Selection.Bands, nil),
			},
			{
				Label:   "Industry",
				Param:   filter.ParamIndustry,
				Help:    "Select one or more ANZSIC industry codes to filter",
				Options: options(opts.Industries, v.Selection.Industries, nil),
			},
		},
	}
	for _, c := range v.Filtered {
		data.Companies = append(data.Companies, companyRow{
			Name:        c.LegalName,
			EntityType:  c.EntityTypeLabel,
			Location:    c.Location,
			Band:        c.StandardBand,
			Industry:    c.IndustryDescription,
			Shortlisted: v.Names[c.LegalName],
		})
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		internalError(w, r, "render page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	v, err := s.buildView(r.Context(), r)
	if err != nil {
		internalError(w, r, "load shortlist", err)
		return
	}
	records, ok := v.records(name)
	if !ok {
		WriteError(w, r, http.StatusNotFound, "unknown_view", "view must be shortlist or all")
		return
	}

	fig := chart.Build(records, v.Dataset.Bands, s.opts.ChartSeed)
	var buf bytes.Buffer
	err = chart.Render(&buf, fig, chart.Options{
		Width:  s.opts.ChartWidth,
		Height: s.opts.ChartHeight,
		Labels: name == ViewShortlist,
	})
	if errors.Is(err, chart.ErrNoPoints) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		internalError(w, r, "render chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleToggleForm adds the named company to the shortlist, or removes it
// when already present, then redirects back to the page.
func (s *Server) handleToggleForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_form", "could not parse form")
		return
	}
	name := strings.TrimSpace(r.PostForm.Get("name"))
	if name == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_form", "name is required")
		return
	}
	if _, ok := s.source.Current().Lookup(name); !ok {
		WriteError(w, r, http.StatusNotFound, "unknown_company", "no company named "+name)
		return
	}

	id := s.ensureSession(w, r)
	entries, err := s.store.ListShortlist(r.Context(), id)
	if err != nil {
		internalError(w, r, "list shortlist", err)
		return
	}
	if model.ShortlistNames(entries)[name] {
		err = s.store.RemoveShortlist(r.Context(), id, name)
	} else {
		err = s.store.AddShortlist(r.Context(), id, name)
	}
	if err != nil {
		internalError(w, r, "toggle shortlist", err)
		return
	}
	redirectBack(w, r, r.PostForm.Get("q"))
}

func (s *Server) handleClearForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_form", "could not parse form")
		return
	}
	if id := readSession(r); id != "" {
		if _, err := s.store.ClearShortlist(r.Context(), id); err != nil {
			internalError(w, r, "clear shortlist", err)
			return
		}
	}
	redirectBack(w, r, r.PostForm.Get("q"))
}

// redirectBack sends the browser to the page with the filter selection
// carried in q. Only filter parameters survive the round trip.
func redirectBack(w http.ResponseWriter, r *http.Request, q string) {
	vals, err := url.ParseQuery(q)
	if err != nil {
		vals = url.Values{}
	}
	target := "/"
	if enc := filter.FromQuery(vals).Query().Encode(); enc != "" {
		target += "?" + enc
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func chartURL(view, query string) string {
	u := "/chart/" + view + ".svg"
	if query != "" {
		u += "?" + query
	}
	return u
}

func options(values, selected []string, label func(string) string) []option {
	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	out := make([]option, 0, len(values))
	for _, v := range values {
		l := v
		if label != nil {
			l = label(v)
		}
		out = append(out, option{Value: v, Label: l, Selected: chosen[v]})
	}
	return out
}
