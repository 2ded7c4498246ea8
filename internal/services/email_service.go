package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/autosolutionsai-didac/Falcon/internal/config"
)

// EmailService handles email sending via SendGrid. Delivery failures
// are logged and reported as false; they never propagate as errors.
type EmailService struct {
	apiKey    string
	fromEmail string
	fromName  string
	appURL    string
	client    *sendgrid.Client
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.EmailConfig) *EmailService {
	client := sendgrid.NewSendClient(cfg.APIKey)
	return &EmailService{
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		appURL:    cfg.AppURL,
		client:    client,
	}
}

// NotifyCompletion sends the analysis outcome email. On success runs,
// summary is the executive summary text and pdfData optionally carries
// the rendered executive report; on failures, summary is the error
// text and confidenceLabel is the N/A sentinel.
func (s *EmailService) NotifyCompletion(toEmail, userName string, caseID uint, summary, confidenceLabel string, isError bool, pdfData []byte) bool {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(userName, toEmail)

	var subject, plainText, htmlContent string
	if isError {
		subject = fmt.Sprintf("Falcon Alert: Analysis Failed for Case #%d", caseID)
		plainText = s.buildFailureEmailText(userName, caseID, summary)
		htmlContent = s.buildFailureEmailHTML(userName, caseID, summary)
	} else {
		subject = fmt.Sprintf("Falcon Analysis Complete: Case #%d", caseID)
		plainText = s.buildCompletionEmailText(userName, caseID, summary, confidenceLabel)
		htmlContent = s.buildCompletionEmailHTML(userName, caseID, summary, confidenceLabel)
	}

	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)

	if !isError && len(pdfData) > 0 {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(pdfData))
		attachment.SetType("application/pdf")
		attachment.SetFilename(fmt.Sprintf("case-%d-executive-summary.pdf", caseID))
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	response, err := s.client.Send(message)
	if err != nil {
		log.Printf("ERROR: failed to send notification for case %d: %v", caseID, err)
		return false
	}
	if response.StatusCode >= 400 {
		log.Printf("ERROR: SendGrid API error for case %d: status %d, body: %s", caseID, response.StatusCode, response.Body)
		return false
	}

	return true
}

func (s *EmailService) buildCompletionEmailText(userName string, caseID uint, summary, confidenceLevel string) string {
	var text bytes.Buffer

	text.WriteString(fmt.Sprintf(`Hello %s,

The comprehensive forensic analysis for Case #%d has been completed successfully.

Overall Confidence Level: %s

Analysis Summary:
%s

Available Reports:
- Executive Summary Report
- Confidence Analysis Report
- Detailed Forensic Report

You can access all reports and detailed findings by logging into your Falcon dashboard.

Best regards,
The Falcon Team
`, userName, caseID, confidenceLevel, summary))

	return text.String()
}

func (s *EmailService) buildCompletionEmailHTML(userName string, caseID uint, summary, confidenceLevel string) string {
	var html bytes.Buffer

	html.WriteString(`<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #1976d2; color: white; padding: 20px; text-align: center; }
        .content { background-color: #f7f7f7; padding: 30px; margin-top: 20px; }
        .summary-box { background-color: #e3f2fd; padding: 20px; border-radius: 5px; margin: 20px 0; }
        .button { display: inline-block; padding: 12px 24px; background-color: #1976d2; color: white; text-decoration: none; border-radius: 5px; margin-top: 20px; }
        .reports-list { background-color: white; padding: 15px; border-radius: 5px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Forensic Analysis Complete</h1>
        </div>
        <div class="content">
            <h2>Hello ` + userName + `,</h2>
            <p>The comprehensive forensic analysis for Case #` + fmt.Sprint(caseID) + ` has been completed successfully.</p>

            <div class="summary-box">
                <h3>Analysis Summary</h3>
                <p><strong>Overall Confidence Level:</strong> ` + confidenceLevel + `</p>
                <p>` + summary + `</p>
            </div>

            <div class="reports-list">
                <h4>Available Reports:</h4>
                <ul>
                    <li>Executive Summary Report</li>
                    <li>Confidence Analysis Report</li>
                    <li>Detailed Forensic Report</li>
                </ul>
            </div>

            <center>
                <a href="` + fmt.Sprintf("%s/cases/%d", s.appURL, caseID) + `" class="button">View Full Report</a>
            </center>

            <p style="margin-top: 30px; font-size: 12px; color: #666;">
                This analysis was performed using Falcon v3.0 with Revolutionary Anti-Hallucination Architecture.
                All findings include confidence levels and are traceable to source documentation.
            </p>
        </div>
    </div>
</body>
</html>`)

	return html.String()
}

func (s *EmailService) buildFailureEmailText(userName string, caseID uint, errorSummary string) string {
	var text bytes.Buffer

	text.WriteString(fmt.Sprintf(`Hello %s,

Unfortunately, the forensic analysis for Case #%d has encountered an error:

Error: %s

Our team has been notified and will investigate this issue. Please try again later or contact support if the problem persists.

Best regards,
The Falcon Team
`, userName, caseID, errorSummary))

	return text.String()
}

func (s *EmailService) buildFailureEmailHTML(userName string, caseID uint, errorSummary string) string {
	var html bytes.Buffer

	html.WriteString(`<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #d32f2f; color: white; padding: 20px; text-align: center; }
        .content { background-color: #f7f7f7; padding: 30px; margin-top: 20px; }
        .error-box { background-color: #ffebee; border-left: 4px solid #d32f2f; padding: 15px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Analysis Failed</h1>
        </div>
        <div class="content">
            <h2>Hello ` + userName + `,</h2>
            <p>Unfortunately, the forensic analysis for Case #` + fmt.Sprint(caseID) + ` has encountered an error:</p>
            <div class="error-box">
                <strong>Error:</strong> ` + errorSummary + `
            </div>
            <p>Our team has been notified and will investigate this issue. Please try again later or contact support if the problem persists.</p>
        </div>
    </div>
</body>
</html>`)

	return html.String()
}
