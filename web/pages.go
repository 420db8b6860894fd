package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/s0up4200/moviedeck/omdb"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// placeholderPoster is shown when OMDb has no poster for a title
const placeholderPoster = "/static/placeholder.svg"

const (
	pageSearch   = "search"
	pageDetails  = "details"
	pageNotFound = "notfound"
)

type pages struct {
	templates map[string]*template.Template
}

var funcMap = template.FuncMap{
	"poster": func(m omdb.Movie) string { return m.PosterOr(placeholderPoster) },
	"na": func(s string) string {
		if s == "" {
			return omdb.NotAvailable
		}
		return s
	},
}

// parsePages builds one template set per page, each sharing the layout
func parsePages() (*pages, error) {
	p := &pages{templates: make(map[string]*template.Template)}
	for _, name := range []string{pageSearch, pageDetails, pageNotFound} {
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, err
		}
		p.templates[name] = tmpl
	}
	return p, nil
}

// render executes a page into a buffer first so a template error never
// leaves a half written response
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.pages.templates[name]
	if !ok {
		s.logger.Error().Str("page", name).Msg("Unknown page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error().Err(err).Str("page", name).Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// layoutData is shared by every page
type layoutData struct {
	Title string
	Dark  bool
}

type searchData struct {
	layoutData
	Query    string
	Filter   string
	Page     int
	Pages    int
	Total    int
	PrevPage int
	NextPage int
	Movies   []omdb.Movie
	Message  string
	Error    string
	Recent   []string
}

type detailsData struct {
	layoutData
	Movie  omdb.Movie
	Rating int
	Stars  []int
}

type notFoundData struct {
	layoutData
	Message string
}
