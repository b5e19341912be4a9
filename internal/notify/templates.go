package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/northfield/backend/internal/model"
)

var ownerHTML = template.Must(template.New("owner").Parse(`<h2>New {{.KindLabel}} inquiry</h2>
<table>
{{range .Rows}}<tr><th align="left">{{.Label}}</th><td>{{.Value}}</td></tr>
{{end}}</table>
<p style="white-space:pre-wrap">{{.Inquiry.Message}}</p>
<p><small>Reference {{.Inquiry.ID}}</small></p>
`))

var confirmationHTML = template.Must(template.New("confirmation").Parse(`<p>Hi {{.Inquiry.Name}},</p>
<p>Thanks for reaching out to {{.Business}}. We received your {{.KindLabel}} request and will get back to you within one business day.</p>
<p>For reference, here is what you sent:</p>
<blockquote style="white-space:pre-wrap">{{.Inquiry.Message}}</blockquote>
<p>{{.Business}}</p>
`))

type row struct {
	Label string
	Value string
}

type emailData struct {
	Inquiry   *model.Inquiry
	Business  string
	KindLabel string
	Rows      []row
}

func kindLabel(k model.InquiryKind) string {
	if k == model.KindConsultation {
		return "consultation"
	}
	return "contact"
}

func detailRows(inq *model.Inquiry) []row {
	rows := []row{
		{"Name", inq.Name},
		{"Email", inq.Email},
		{"Phone", inq.Phone},
		{"Organization", inq.Organization},
		{"Role", inq.Role},
		{"Service", inq.Service},
	}
	out := rows[:0]
	for _, r := range rows {
		if strings.TrimSpace(r.Value) != "" {
			out = append(out, r)
		}
	}
	return out
}

func ownerSubject(inq *model.Inquiry) string {
	return fmt.Sprintf("New %s inquiry from %s (%s)", kindLabel(inq.Kind), inq.Name, inq.Organization)
}

func confirmationSubject(business string, inq *model.Inquiry) string {
	if inq.Kind == model.KindConsultation {
		return "Your consultation request with " + business
	}
	return "We received your message - " + business
}

func renderOwner(inq *model.Inquiry) (text, html string, err error) {
	data := emailData{Inquiry: inq, KindLabel: kindLabel(inq.Kind), Rows: detailRows(inq)}

	var b strings.Builder
	fmt.Fprintf(&b, "New %s inquiry\n\n", data.KindLabel)
	for _, r := range data.Rows {
		fmt.Fprintf(&b, "%s: %s\n", r.Label, r.Value)
	}
	fmt.Fprintf(&b, "\n%s\n\nReference %s\n", inq.Message, inq.ID)

	var buf bytes.Buffer
	if err := ownerHTML.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render owner email: %w", err)
	}
	return b.String(), buf.String(), nil
}

func renderConfirmation(business string, inq *model.Inquiry) (text, html string, err error) {
	data := emailData{Inquiry: inq, Business: business, KindLabel: kindLabel(inq.Kind)}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", inq.Name)
	fmt.Fprintf(&b, "Thanks for reaching out to %s. We received your %s request and will get back to you within one business day.\n\n", business, data.KindLabel)
	fmt.Fprintf(&b, "For reference, here is what you sent:\n\n%s\n\n%s\n", inq.Message, business)

	var buf bytes.Buffer
	if err := confirmationHTML.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render confirmation email: %w", err)
	}
	return b.String(), buf.String(), nil
}

func webhookSummary(inq *model.Inquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s inquiry from %s <%s>\n", kindLabel(inq.Kind), inq.Name, inq.Email)
	fmt.Fprintf(&b, "Organization: %s\n", inq.Organization)
	if inq.Service != "" {
		fmt.Fprintf(&b, "Service: %s\n", inq.Service)
	}
	msg := []rune(inq.Message)
	if len(msg) > 500 {
		msg = append(msg[:500], []rune("...")...)
	}
	fmt.Fprintf(&b, "> %s", string(msg))
	return b.String()
}
