// Package ui renders the dashboard pages as templ components.
package ui

import (
	"context"
	"embed"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

//go:embed static
var staticFS embed.FS

// Static serves the embedded stylesheet and assets under the prefix it is mounted on.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// markup writes HTML to w and keeps the first write error.
type markup struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newMarkup(ctx context.Context, w io.Writer) *markup {
	return &markup{ctx: ctx, w: w}
}

func (m *markup) raw(parts ...string) {
	for _, p := range parts {
		if m.err != nil {
			return
		}
		_, m.err = io.WriteString(m.w, p)
	}
}

func (m *markup) text(s string) {
	m.raw(templ.EscapeString(s))
}

func (m *markup) number(n int) {
	m.raw(strconv.Itoa(n))
}

// attr writes ` name="value"` with value escaped.
func (m *markup) attr(name, value string) {
	m.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

func (m *markup) url(name string, u templ.SafeURL) {
	m.attr(name, string(u))
}

func (m *markup) flag(name string, on bool) {
	if on {
		m.raw(" ", name)
	}
}

func (m *markup) render(c templ.Component) {
	if m.err != nil || c == nil {
		return
	}
	m.err = c.Render(m.ctx, m.w)
}

func component(fn func(m *markup)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := newMarkup(ctx, w)
		fn(m)
		return m.err
	})
}

func classes(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func when(ok bool, class string) string {
	if ok {
		return class
	}
	return ""
}

// Layout wraps body in the document shell.
func Layout(title string, dark bool, body templ.Component) templ.Component {
	return component(func(m *markup) {
		m.raw(`<!DOCTYPE html><html lang="pt-BR"`)
		if dark {
			m.attr("class", "dark")
		}
		m.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		m.text(title)
		m.raw(`</title><link rel="stylesheet" href="/static/retro.css"></head><body class="concrete">`)
		m.render(body)
		m.raw(`</body></html>`)
	})
}

// Flash renders an alert box. kind is "info" or "error"; empty messages render nothing.
func Flash(message, kind string) templ.Component {
	return component(func(m *markup) {
		if message == "" {
			return
		}
		m.raw(`<div`)
		m.attr("class", "alert alert-"+kind)
		m.raw(`>`)
		m.text(message)
		m.raw(`</div>`)
	})
}

// avatarURL accepts our own avatar paths and inline JPEG data URLs only.
func avatarURL(s string) templ.SafeURL {
	switch {
	case strings.HasPrefix(s, "/avatars/"):
		return templ.URL(s)
	case strings.HasPrefix(s, "data:image/jpeg;base64,"):
		return templ.SafeURL(s)
	default:
		return ""
	}
}
