package email

import (
	"bytes"
	"html/template"
)

type Content struct {
	Title       string
	Body        string
	ProjectName string
	ActionURL   string
}

// html/template escapes every interpolated value for its context.
var notificationTmpl = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body style="margin:0;padding:0;background:#f4f5f7;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:#f4f5f7;padding:24px 0;">
<tr><td align="center">
<table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;padding:32px;">
<tr><td style="font-size:13px;color:#6b7280;text-transform:uppercase;letter-spacing:0.04em;">SitePlan</td></tr>
{{- if .ProjectName}}
<tr><td style="padding-top:8px;font-size:14px;color:#374151;">Project: <strong>{{.ProjectName}}</strong></td></tr>
{{- end}}
<tr><td style="padding-top:16px;font-size:20px;font-weight:600;color:#111827;">{{.Title}}</td></tr>
<tr><td style="padding-top:12px;font-size:15px;line-height:1.5;color:#374151;">{{.Body}}</td></tr>
{{- if .ActionURL}}
<tr><td style="padding-top:24px;">
<a href="{{.ActionURL}}" style="display:inline-block;background:#f97316;color:#ffffff;text-decoration:none;padding:10px 20px;border-radius:6px;font-weight:600;">Open in SitePlan</a>
</td></tr>
{{- end}}
<tr><td style="padding-top:32px;font-size:12px;color:#9ca3af;">You can change which notifications you receive in the app settings.</td></tr>
</table>
</td></tr>
</table>
</body>
</html>
`))

// Render builds the notification email body.
func Render(c Content) (string, error) {
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, c); err != nil {
		return "", err
	}
	return buf.String(), nil
}
