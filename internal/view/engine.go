package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutFile     = "layout.html"
	layoutTemplate = "layout"
	dateTimeLayout = "02/01/2006 15:04"
	dateLayout     = "02/01/2006"
)

// Engine renders the embedded page templates inside the shared layout. It implements fiber.Views.
type Engine struct {
	files     fs.FS
	sanitizer *bluemonday.Policy

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// New creates an engine over the embedded templates.
func New() *Engine {
	return NewFromFS(templateFS)
}

// NewFromFS creates an engine over templates stored under "templates/" in files.
func NewFromFS(files fs.FS) *Engine {
	return &Engine{
		files:     files,
		sanitizer: bluemonday.UGCPolicy(),
		pages:     make(map[string]*template.Template),
	}
}

// Load parses every page together with the layout.
func (e *Engine) Load() error {
	names, err := fs.Glob(e.files, "templates/*.html")
	if err != nil {
		return err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		base := path.Base(name)
		if base == layoutFile {
			continue
		}
		tmpl, err := template.New(base).Funcs(e.funcs()).ParseFS(e.files, "templates/"+layoutFile, name)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", base, err)
		}
		pages[strings.TrimSuffix(base, ".html")] = tmpl
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

// Render writes the named page wrapped in the layout.
func (e *Engine) Render(out io.Writer, name string, binding interface{}, _ ...string) error {
	e.mu.RLock()
	tmpl, ok := e.pages[strings.TrimSuffix(name, ".html")]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(out, layoutTemplate, binding)
}

func (e *Engine) funcs() template.FuncMap {
	return template.FuncMap{
		"deref":    deref,
		"richText": e.richText,
		"datetime": formatDateTime,
		"date":     formatDate,
		"year":     func() int { return time.Now().Year() },
		"isImage":  isImage,
	}
}

// richText sanitizes free text and keeps its line breaks.
func (e *Engine) richText(value interface{}) template.HTML {
	text := strings.TrimSpace(deref(value))
	if text == "" {
		return ""
	}
	cleaned := e.sanitizer.Sanitize(text)
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(cleaned, "\n", "<br>"))
}

func deref(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	default:
		return fmt.Sprint(v)
	}
}

func formatDateTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Local().Format(dateTimeLayout)
}

func formatDate(value *datatypes.Date) string {
	if value == nil {
		return ""
	}
	return time.Time(*value).Format(dateLayout)
}

func isImage(value interface{}) bool {
	name := strings.ToLower(deref(value))
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
