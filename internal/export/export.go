// Package export renders executed request definitions as snippets for
// other tools.
package export

import (
	"strconv"
	"strings"
	"text/template"

	"github.com/unkn0wn-root/recurl/internal/errdef"
	"github.com/unkn0wn-root/recurl/internal/requestfile"
)

const jsFetchTempl = `{{- if .BodyFile -}}
// Original file: {{ .BodyFile }}
// Inline the file contents or load them before sending.
{{ end -}}
const response = await fetch({{ js .URL }}, {
  method: {{ js .Method }},
{{- if .Headers }}
  headers: {
{{- range .Headers }}
    {{ js .Name }}: {{ js .Value }},
{{- end }}
  },
{{- end }}
{{- if .Body }}
  body: {{ js .Body }},
{{- end }}
});
`

const curlTempl = `curl -X {{ .Method }} {{ sh .URL }}{{ range .Headers }} \
  -H {{ sh (printf "%s: %s" .Name .Value) }}{{ end }}
{{- if .BodyFile }} \
  --data-binary @{{ .BodyFile }}
{{- else if .Body }} \
  --data {{ sh .Body }}
{{- end }}
`

var exportFunctions = template.FuncMap{
	"js": strconv.Quote,
	"sh": shellQuote,
}

var exportTemplates = template.Must(
	template.Must(
		template.New("js-fetch").Funcs(exportFunctions).Parse(jsFetchTempl),
	).New("curl").Funcs(exportFunctions).Parse(curlTempl),
)

type templateData struct {
	Method   string
	URL      string
	Headers  []requestfile.Header
	Body     string
	BodyFile string
}

// Names lists the available export template names.
func Names() []string {
	return []string{"js-fetch", "curl"}
}

// Render produces the named snippet for the definition. Unknown names
// fail rather than guessing.
func Render(name string, def requestfile.Definition) (string, error) {
	tmpl := exportTemplates.Lookup(name)
	if tmpl == nil {
		return "", errdef.New(errdef.CodeUnknown, "unknown export template: %s", name)
	}

	data := templateData{
		Method:  strings.ToUpper(def.Method),
		URL:     def.URL,
		Headers: def.Headers,
	}
	switch def.Body.Kind {
	case requestfile.BodyText:
		data.Body = def.Body.Text
	case requestfile.BodyBytes:
		data.BodyFile = def.Body.FilePath
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", errdef.Wrap(errdef.CodeUnknown, err, "rendering %s export", name)
	}
	return b.String(), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
