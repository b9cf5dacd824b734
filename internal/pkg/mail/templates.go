package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// Template names known to the Renderer.
const (
	TemplateSubscribe   = "subscribe"
	TemplateUnsubscribe = "unsubscribe"
	TemplateDigest      = "digest"
)

// Subjects of the newsletter emails.
const (
	SubjectSubscribe   = "Підписка на новини мережі ДІЙ!"
	SubjectUnsubscribe = "Відписка від новин мережі ДІЙ!"
	SubjectDigest      = "Нові події мережі ДІЙ!"
)

const layoutTpl = `{{define "layout"}}<!DOCTYPE html>
<html lang="uk">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
</head>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
{{template "content" .}}
  <hr style="width:100%;border:none;border-top:1px solid #eaeaea;margin:26px 0" />
  <p style="font-size:10px;text-align:center;color:rgb(156,163,175)">Лист надіслано автоматично, будь ласка, не відповідайте на нього.<br />©{{year}} {{.SiteName}}</p>
</div>
</body>
</html>{{end}}`

const subscribeTpl = `{{define "content"}}
  <h2 style="color:#333">Підписка на новини</h2>
  <p>Ви отримали цей лист, бо адресу {{.Email}} було вказано для підписки на новини мережі.</p>
  <p>Щоб підтвердити підписку, натисніть кнопку нижче:</p>
  <p style="margin-top:24px">
    <a href="{{.CheckoutURL}}" style="background:#e30613;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Підтвердити підписку</a>
  </p>
  <p style="color:#999;font-size:12px">Якщо це були не ви, просто проігноруйте цей лист.</p>
{{end}}`

const unsubscribeTpl = `{{define "content"}}
  <h2 style="color:#333">Відписка від новин</h2>
  <p>Надійшов запит на відписку адреси {{.Email}} від новин мережі.</p>
  <p style="margin-top:24px">
    <a href="{{.CheckoutURL}}" style="background:#333;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Підтвердити відписку</a>
  </p>
  <p style="color:#999;font-size:12px">Якщо це були не ви, просто проігноруйте цей лист.</p>
{{end}}`

const digestTpl = `{{define "content"}}
  <h2 style="color:#333">Нові події</h2>
  {{range .Items}}
  <div style="margin:16px 0">
    <h3 style="margin:0 0 8px"><a href="{{.URL}}" style="color:#e30613;text-decoration:none">{{.Title}}</a></h3>
    {{if .Excerpt}}<div style="font-size:14px;line-height:22px;color:#333">{{.Excerpt}}</div>{{end}}
    <p style="font-size:12px;color:#999">{{.CreatedAt.Format "02.01.2006"}}</p>
  </div>
  {{end}}
  {{if .UnsubscribeURL}}
  <p style="font-size:12px"><a href="{{.UnsubscribeURL}}" style="color:rgb(156,163,175)">Відписатися від новин</a></p>
  {{end}}
{{end}}`

// CheckoutData is the data of the subscribe and unsubscribe confirmation emails.
type CheckoutData struct {
	SiteName    string
	Email       string
	CheckoutURL string
}

// DigestItem is one content item listed in a digest.
type DigestItem struct {
	Title     string
	Excerpt   template.HTML
	URL       string
	CreatedAt time.Time
}

// DigestData is the data of the digest email. It is shared by all recipients.
type DigestData struct {
	SiteName       string
	Items          []DigestItem
	UnsubscribeURL string
}

// Renderer renders the named email templates.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"year": func() int { return time.Now().Year() },
	}
	r := &Renderer{templates: make(map[string]*template.Template)}
	for name, body := range map[string]string{
		TemplateSubscribe:   subscribeTpl,
		TemplateUnsubscribe: unsubscribeTpl,
		TemplateDigest:      digestTpl,
	} {
		t, err := template.New(name).Funcs(funcs).Parse(layoutTpl)
		if err != nil {
			return nil, fmt.Errorf("parse layout for %s: %w", name, err)
		}
		if _, err := t.Parse(body); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render executes the named template with data.
func (r *Renderer) Render(name string, data interface{}) (string, error) {
	t, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("mail: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
