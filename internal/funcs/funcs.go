package funcs

import (
	"strings"
	"text/template"
	"time"
)

var TemplateFuncs = template.FuncMap{
	"now":        time.Now,
	"formatTime": func(format string, t time.Time) string { return t.Format(format) },
	"upper":      strings.ToUpper,
	"lower":      strings.ToLower,
}
