package email

import "html/template"

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="margin:0;padding:24px;font-family:Arial,sans-serif;background:#f4f7fa;">
  <div style="max-width:560px;margin:0 auto;background:#fff;border-radius:8px;padding:32px;">
    <h2 style="margin-top:0;color:#1a1a2e;">{{.AppName}}: reset your password</h2>
    <p>We received a request to reset the password for <strong>{{.Email}}</strong>.</p>
    <p>The link below expires in <strong>1 hour</strong>.</p>
    <p><a href="{{.ResetURL}}" style="display:inline-block;padding:12px 24px;background:#2b6cb0;color:#fff;text-decoration:none;border-radius:6px;">Reset password</a></p>
    <p style="color:#718096;font-size:13px;">If you did not ask for this, ignore this email and your password stays the same.</p>
    <p style="color:#718096;font-size:13px;word-break:break-all;">{{.ResetURL}}</p>
  </div>
</body>
</html>
`))

var quotationTemplate = template.Must(template.New("quotation").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="margin:0;padding:24px;font-family:Arial,sans-serif;background:#f4f7fa;">
  <div style="max-width:560px;margin:0 auto;background:#fff;border-radius:8px;padding:32px;">
    <p>Dear {{.ClientName}},</p>
    <p>Please find our quotation <strong>{{.QuotationNumber}}</strong> for a total of <strong>{{.Total}}</strong>.
    It is valid until {{.ValidUntil.Format "January 2, 2006"}}.</p>
    {{if .PDFURL}}<p><a href="{{.PDFURL}}" style="display:inline-block;padding:12px 24px;background:#2b6cb0;color:#fff;text-decoration:none;border-radius:6px;">Download PDF</a></p>{{end}}
    <p>Kind regards,<br>{{.CompanyName}}</p>
  </div>
</body>
</html>
`))
