package core

import (
	"encoding/json"
	"html/template"
	"net/http"
)

var Templates *template.Template

type DataContext struct {
	Lang string
	Data interface{}
}

// Custom functions available inside the templates.
var templateFuncs = template.FuncMap{
	"default": func(value interface{}, defaultValue interface{}) interface{} {
		if value == nil || value == "" {
			return defaultValue
		}
		return value
	},
	"safeHTML": func(s string) template.HTML {
		return template.HTML(s)
	},
	"fmtValue": formatValue,
	// safeJS embeds pre-marshaled JSON inside script blocks.
	"safeJS": func(s string) template.JS {
		return template.JS(s)
	},
	"json": func(v interface{}) (template.JS, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return template.JS(b), nil
	},
}

// LoadTemplates parses every page template under the given glob. Called once
// from main; tests may install their own set into Templates instead.
func LoadTemplates(glob string) error {
	t := template.New("").Funcs(templateFuncs)
	t, err := t.ParseGlob(glob)
	if err != nil {
		return err
	}
	Templates = t
	for _, tmpl := range Templates.Templates() {
		Debugf("template loaded: %q", tmpl.Name())
	}
	return nil
}

func RenderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data map[string]interface{}) {
	if Templates == nil {
		Errorf("Templates not loaded, cannot render %s", templateName)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	err := Templates.ExecuteTemplate(w, templateName, &DataContext{
		Lang: ResolveLang(r),
		Data: data,
	})
	if err != nil {
		Errorf("Error rendering template %s: %v", templateName, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
