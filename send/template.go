package send

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/Mbenve9198/exit-wounds/models"
	"github.com/Mbenve9198/exit-wounds/overlay"
)

// EmailBodyWidth is the fixed pixel width email clients render the body at.
// Censor glyph font sizes are computed against it; positions stay in
// percentages so the overlay survives client reflow.
const EmailBodyWidth = 600

// RenderOptions is the admin-authored part of the email, shared by every
// recipient of one send.
type RenderOptions struct {
	Subject    string
	TextBefore string
	TextAfter  string
	ShowTitle  bool
	BaseURL    string
}

type emailCensor struct {
	Emoji    string
	Position template.CSS
	FontSize template.CSS
}

type emailImage struct {
	URL     string
	Alt     string
	Censors []emailCensor
}

type emailData struct {
	Title            string
	ShowTitle        bool
	BeforeParagraphs []string
	AfterParagraphs  []string
	Images           []emailImage
	HasCensors       bool
	ComicURL         string
	UnsubscribeURL   string
}

// Render produces the HTML document for one recipient. The censor overlay
// uses overlay.PositionStyle / overlay.FontSizePx, the same functions the
// editor and reader render through, so placement is identical byte for byte.
func Render(comic *models.Comic, opts RenderOptions, rcpt Recipient) (string, error) {
	data := emailData{
		Title:     comic.Title,
		ShowTitle: opts.ShowTitle,
		ComicURL:  strings.TrimRight(opts.BaseURL, "/") + "/comics/" + comic.ID.Hex(),
	}
	data.BeforeParagraphs = personalize(opts.TextBefore, rcpt.Nickname)
	data.AfterParagraphs = personalize(opts.TextAfter, rcpt.Nickname)

	for _, img := range comic.SortedImages() {
		ei := emailImage{
			URL: img.URL,
			Alt: comic.Title,
		}
		for _, c := range img.Censors {
			ei.Censors = append(ei.Censors, emailCensor{
				Emoji:    c.Emoji,
				Position: template.CSS(overlay.PositionStyle(c)),
				FontSize: template.CSS("font-size:" + overlay.FontSizePx(c, EmailBodyWidth)),
			})
			data.HasCensors = true
		}
		data.Images = append(data.Images, ei)
	}

	if rcpt.UnsubscribeToken != "" || rcpt.User.Email != "" {
		q := url.Values{}
		q.Set("email", rcpt.User.Email)
		if rcpt.UnsubscribeToken != "" {
			q.Set("token", rcpt.UnsubscribeToken)
		}
		data.UnsubscribeURL = strings.TrimRight(opts.BaseURL, "/") + "/api/unsubscribe?" + q.Encode()
	}

	var b strings.Builder
	if err := emailTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return b.String(), nil
}

// personalize substitutes the {{nickname}} placeholder and splits the
// admin-authored text into paragraphs on newlines.
func personalize(text, nickname string) []string {
	text = strings.ReplaceAll(text, "{{nickname}}", nickname)
	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return paragraphs
}

var emailTemplate = template.Must(template.New("comic-email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Exit Wounds{{if .ShowTitle}} - {{.Title}}{{end}}</title>
  <style>
    body, html { margin: 0; padding: 0; font-family: 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f9f9f9; }
    .container { max-width: 600px; margin: 0 auto; padding: 30px 20px; background-color: #ffffff; border: 2px solid #000; border-radius: 15px; box-shadow: 5px 5px 0px #000; }
    .header { text-align: center; margin-bottom: 30px; border-bottom: 2px dashed #000; padding-bottom: 20px; }
    h1 { color: #000; font-size: 28px; margin-bottom: 20px; font-weight: 800; letter-spacing: -0.5px; }
    p { margin-bottom: 15px; font-size: 16px; }
    .page { position: relative; margin: 20px 0; }
    .page img { width: 100%; height: auto; display: block; }
    .censor { position: absolute; display: flex; align-items: center; justify-content: center; }
    .view-online { text-align: center; margin: 20px 0; }
    .view-online a { display: inline-block; background-color: #000; color: #fff; padding: 10px 20px; border-radius: 8px; text-decoration: none; font-weight: 600; }
    .footer { margin-top: 30px; padding-top: 20px; border-top: 2px dashed #000; text-align: center; font-size: 14px; }
    .signature { font-style: italic; margin-top: 15px; font-weight: 600; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>EXIT WOUNDS</h1>
      {{if .ShowTitle}}<h2>{{.Title}}</h2>{{end}}
    </div>

    {{range .BeforeParagraphs}}<p>{{.}}</p>
    {{end}}

    {{range .Images}}<div class="page">
      <img src="{{.URL}}" alt="{{.Alt}}">
      {{range .Censors}}<div class="censor" style="{{.Position}};{{.FontSize}}"><span>{{.Emoji}}</span></div>
      {{end}}
    </div>
    {{end}}

    {{if .HasCensors}}<div class="view-online">
      <p>Some panels are censored. Your email client can't unlock them, but the site can.</p>
      <a href="{{.ComicURL}}">View the full comic on the site</a>
    </div>
    {{end}}

    {{range .AfterParagraphs}}<p>{{.}}</p>
    {{end}}

    <div class="footer">
      <div class="signature">
        Still somewhat breathing,<br><br>
        Marco<br>
        Ex-founder, Eternal White Belt &amp; Accidental AI Wrangler
      </div>
      <p><small>&copy;2025 Exit Wounds{{if .UnsubscribeURL}} | <a href="{{.UnsubscribeURL}}">Unsubscribe</a>{{end}}</small></p>
    </div>
  </div>
</body>
</html>
`))
