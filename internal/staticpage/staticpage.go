// Package staticpage renders the locally generated documents shown by the
// static view tier.
package staticpage

import (
	"bytes"
	"html/template"
	"sort"

	"github.com/microcosm-cc/bluemonday"

	"pkt.systems/tabshell/view"
)

const (
	// FailureTitle titles the page shown when a tab could not be rendered.
	FailureTitle = "Unable to Load Page"
	// GuidanceTitle titles the page shown for blocked hosts.
	GuidanceTitle = "Restricted Page"
)

const layout = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
.detail { color: #666; font-size: 13px; }
</style>
</head>
<body>
{{block "body" .}}{{end}}
</body>
</html>`

var (
	failureTemplate = template.Must(template.Must(template.New("failure").Parse(layout)).Parse(`{{define "body"}}<h2 id="title">{{.Title}}</h2>
<p id="message">This page could not be loaded. This may be due to security restrictions or network issues.</p>
<p id="url">URL: {{.URL}}</p>
{{if .Description}}<p id="description" class="detail">{{.Description}}</p>{{end}}{{end}}`))

	guidanceTemplate = template.Must(template.Must(template.New("guidance").Parse(layout)).Parse(`{{define "body"}}<h2 id="title">{{.Title}}</h2>
<p id="url">URL: {{.URL}}</p>
<div id="guidance">{{.Guidance}}</div>{{end}}`))

	nativeTemplate = template.Must(template.Must(template.New("native").Parse(layout)).Parse(`{{define "body"}}<div id="native" data-component="{{.Component}}">
<h2 id="title">{{.Title}}</h2>
{{if .Props}}<dl id="props">{{range .Props}}<dt>{{.Key}}</dt><dd>{{.Value}}</dd>{{end}}</dl>{{end}}
</div>{{end}}`))

	policy = bluemonday.UGCPolicy()
)

type prop struct {
	Key   string
	Value string
}

// Failure renders the page shown once every tier failed for url.
func Failure(url, description string) view.Document {
	return render(failureTemplate, FailureTitle, url, struct {
		Title       string
		URL         string
		Description string
	}{FailureTitle, url, description})
}

// Guidance renders the page shown instead of a blocked host. The guidance
// HTML comes from configuration and is sanitized before use.
func Guidance(url, guidance string) view.Document {
	return render(guidanceTemplate, GuidanceTitle, url, struct {
		Title    string
		URL      string
		Guidance template.HTML
	}{GuidanceTitle, url, Sanitize(guidance)})
}

// Native renders the placeholder document for a shell-native tab. The
// component name and props are exposed for the embedding shell.
func Native(title, component string, props map[string]string) view.Document {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]prop, 0, len(keys))
	for _, k := range keys {
		list = append(list, prop{Key: k, Value: props[k]})
	}
	return render(nativeTemplate, title, "", struct {
		Title     string
		Component string
		Props     []prop
	}{title, component, list})
}

// Sanitize strips unsafe markup from configured HTML.
func Sanitize(raw string) template.HTML {
	return template.HTML(policy.Sanitize(raw))
}

func render(tmpl *template.Template, title, url string, data any) view.Document {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		// Templates are fixed; an execution error leaves a minimal page.
		buf.Reset()
		buf.WriteString("<!doctype html><title>")
		buf.WriteString(template.HTMLEscapeString(title))
		buf.WriteString("</title>")
	}
	return view.Document{Title: title, HTML: buf.String(), URL: url}
}
