package controllers

import (
	"html/template"
	"net/http"
)

// page is the data rendered into the layout
type page struct {
	Title   string
	Heading string
	Message string
	Detail  string
	Success bool
}

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; text-align: center; margin-top: 50px; }
        .success { color: #28a745; }
        .failure { color: #dc3545; }
        .detail { color: #6c757d; font-size: 0.9em; }
    </style>
</head>
<body>
    <h2 class="{{if .Success}}success{{else}}failure{{end}}">{{.Heading}}</h2>
    <p>{{.Message}}</p>
    {{if .Detail}}<p class="detail">{{.Detail}}</p>{{end}}
    {{if .Success}}<script>setTimeout(() => window.close(), 2000);</script>{{end}}
</body>
</html>
`))

// renderPage renders the layout with the provided data and status code
func renderPage(w http.ResponseWriter, statusCode int, data page) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	return layout.Execute(w, data)
}
