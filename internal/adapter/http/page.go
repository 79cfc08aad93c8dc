package http

import (
	"html/template"
	"net/http"
)

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<main>
  <h1>{{.Title}}</h1>
  <img id="map" src="/api/sessions/default/map.svg" alt="World map">
  <ol id="scenes">{{range .Scenes}}
    <li data-date="{{.Date}}"><h2>{{.Title}}</h2><p>{{.Subtitle}}</p><p>{{.Narrative}}</p></li>{{end}}
  </ol>
  <img id="chart" src="/chart/global.svg" alt="Global cumulative cases and deaths">
</main>
</body>
</html>
`))

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Unable to load data</title></head>
<body>
<main role="alert">
  <h1>Unable to load data</h1>
  <p>The pandemic timeline could not be loaded, so the map is unavailable.</p>
  <p>Please reload the page in a few minutes.</p>
  <p><small>{{.}}</small></p>
</main>
</body>
</html>
`))

const loadingPage = `<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><meta http-equiv="refresh" content="2"><title>Loading</title></head>
<body><p>Loading pandemic data&hellip;</p></body></html>
`

// handleIndex renders the page shell, or a full-page error when any startup
// input failed to load. No partial dashboard is ever shown.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	st := s.state.Load()
	switch {
	case st == nil:
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(loadingPage))
	case st.err != nil:
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := errorPage.Execute(w, st.err.Error()); err != nil {
			s.logger.Warn("render error page", "error", err)
		}
	default:
		data := struct {
			Title  string
			Scenes any
		}{Title: "The pandemic, day by day", Scenes: st.app.Scenes()}
		if err := indexPage.Execute(w, data); err != nil {
			s.logger.Warn("render index", "error", err)
		}
	}
}
