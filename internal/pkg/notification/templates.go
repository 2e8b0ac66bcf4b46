package notification

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	texttmpl "text/template"
	"time"
)

type templateSet struct {
	subject *texttmpl.Template
	text    *texttmpl.Template
	html    *htmltmpl.Template
}

var dutchMonths = [...]string{
	"januari", "februari", "maart", "april", "mei", "juni",
	"juli", "augustus", "september", "oktober", "november", "december",
}

var dutchWeekdays = [...]string{
	"zondag", "maandag", "dinsdag", "woensdag", "donderdag", "vrijdag", "zaterdag",
}

// FormatDate renders t like "dinsdag 10 juni 2025 om 10:00"
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d om %s",
		dutchWeekdays[t.Weekday()], t.Day(), dutchMonths[t.Month()-1], t.Year(), t.Format("15:04"))
}

var funcs = map[string]any{"date": FormatDate}

const layoutHTML = `<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<p>Beste {{.DisplayName}},</p>
		{{template "content" .}}
		<p>Met vriendelijke groet,<br>SamenActief</p>
	</div>
</body>
</html>`

var templates = map[Kind]templateSet{
	KindRegistrationConfirmation: mustTemplates(
		`Inschrijving bevestigd: {{.ActivityName}}`,
		`Beste {{.DisplayName}},

Je bent ingeschreven voor {{.ActivityName}} op {{date .ActivityDate}}.
Locatie: {{.LocationText}}

Kun je toch niet? Schrijf je dan uit zodat iemand van de wachtlijst je plek krijgt.

Met vriendelijke groet,
SamenActief
`,
		`<p>Je bent ingeschreven voor <strong>{{.ActivityName}}</strong> op {{date .ActivityDate}}.</p>
		<p>Locatie: {{.LocationText}}</p>
		<p>Kun je toch niet? Schrijf je dan uit zodat iemand van de wachtlijst je plek krijgt.</p>`,
	),
	KindWaitlistPromotion: mustTemplates(
		`Er is een plek vrijgekomen: {{.ActivityName}}`,
		`Beste {{.DisplayName}},

Goed nieuws: er is een plek vrijgekomen bij {{.ActivityName}} op {{date .ActivityDate}}.
Je stond op de wachtlijst en bent nu ingeschreven.
Locatie: {{.LocationText}}

Met vriendelijke groet,
SamenActief
`,
		`<p>Goed nieuws: er is een plek vrijgekomen bij <strong>{{.ActivityName}}</strong> op {{date .ActivityDate}}.</p>
		<p>Je stond op de wachtlijst en bent nu ingeschreven.</p>
		<p>Locatie: {{.LocationText}}</p>`,
	),
}

func mustTemplates(subject, text, html string) templateSet {
	layout := htmltmpl.Must(htmltmpl.New("layout").Funcs(funcs).Parse(layoutHTML))
	return templateSet{
		subject: texttmpl.Must(texttmpl.New("subject").Funcs(funcs).Parse(subject)),
		text:    texttmpl.Must(texttmpl.New("text").Funcs(funcs).Parse(text)),
		html:    htmltmpl.Must(layout.New("content").Parse(html)),
	}
}

// Render produces the subject, HTML and plain-text bodies for a notice
func Render(kind Kind, notice Notice) (subject, html, text string, err error) {
	set, ok := templates[kind]
	if !ok {
		return "", "", "", fmt.Errorf("unknown notification kind %q", kind)
	}

	var buf bytes.Buffer
	if err := set.subject.Execute(&buf, notice); err != nil {
		return "", "", "", fmt.Errorf("render subject: %w", err)
	}
	subject = buf.String()

	buf.Reset()
	if err := set.text.Execute(&buf, notice); err != nil {
		return "", "", "", fmt.Errorf("render text body: %w", err)
	}
	text = buf.String()

	buf.Reset()
	if err := set.html.ExecuteTemplate(&buf, "layout", notice); err != nil {
		return "", "", "", fmt.Errorf("render html body: %w", err)
	}
	html = buf.String()

	return subject, html, text, nil
}
