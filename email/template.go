package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"newsy/models"
)

// Subject builds the digest subject line for a send date and story count.
func Subject(now time.Time, count int) string {
	return fmt.Sprintf("🤖 AI Newsy • %s • %d Stories", now.Format("Jan 2"), count)
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; background-color: #0f0f1a; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;">
    <div style="max-width: 600px; margin: 0 auto; padding: 40px 20px;">

        <div style="text-align: center; margin-bottom: 32px;">
            <h1 style="color: #ffffff; font-size: 28px; margin: 0;">
                🤖 AI Newsy
            </h1>
            <p style="color: #9ca3af; margin: 8px 0 0 0; font-size: 14px;">
                Your Daily AI News Digest • {{.Today}}
            </p>
            {{- if .Topic}}
            <p style="color: #818cf8; margin: 8px 0 0 0; font-size: 13px;">
                Today's focus: {{.Topic}}
            </p>
            {{- end}}
        </div>

        <div style="margin-bottom: 32px;">
            {{- range .Articles}}
            <div style="background: #1a1a2e; border-radius: 12px; padding: 20px; margin-bottom: 16px; border-left: 4px solid #6366f1;">
                <h3 style="margin: 0 0 8px 0; color: #e0e0e0; font-size: 16px;">
                    <a href="{{.URL}}" style="color: #818cf8; text-decoration: none;">{{.Title}}</a>
                </h3>
                <p style="margin: 0 0 8px 0; color: #9ca3af; font-size: 12px;">
                    {{if .Source}}{{.Source}}{{else}}Unknown Source{{end}}
                </p>
                <p style="margin: 0; color: #d1d5db; font-size: 14px; line-height: 1.5;">
                    {{if .Summary}}{{.Summary}}{{else}}No summary available.{{end}}
                </p>
                {{- if .Opinion}}
                <p style="margin: 8px 0 0 0; color: #9ca3af; font-size: 13px; font-style: italic;">
                    {{.Opinion}}
                </p>
                {{- end}}
            </div>
            {{- end}}
        </div>

        <div style="text-align: center; padding-top: 24px; border-top: 1px solid #2d2d44;">
            <p style="color: #6b7280; font-size: 12px; margin: 0;">
                You're receiving this because you subscribed to AI Newsy.
            </p>
            <p style="margin: 8px 0 0 0;">
                <a href="{{.AppURL}}/api/unsubscribe?token={{.Token}}"
                   style="color: #6b7280; font-size: 12px; text-decoration: underline;">
                    Unsubscribe
                </a>
            </p>
        </div>

    </div>
</body>
</html>
`))

type digestData struct {
	Today    string
	Topic    string
	Articles []models.Article
	AppURL   string
	Token    string
}

// Render produces the digest HTML body for one recipient. The token is
// the recipient's personal unsubscribe token.
func Render(articles []models.Article, topic string, now time.Time, appURL, token string) (string, error) {
	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, digestData{
		Today:    now.Format("January 2, 2006"),
		Topic:    topic,
		Articles: articles,
		AppURL:   appURL,
		Token:    token,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.String(), nil
}
