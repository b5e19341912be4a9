package model

import "time"

// InquiryKind identifies which intake form produced an inquiry.
type InquiryKind string

const (
	KindContact      InquiryKind = "contact"
	KindConsultation InquiryKind = "consultation"
)

// Field names accepted by the intake forms.
const (
	FieldName         = "name"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldOrganization = "organization"
	FieldRole         = "role"
	FieldService      = "service"
	FieldMessage      = "message"
)

// Submission is the raw, untrusted payload posted by a form. Fields holds the
// decoded JSON values as-is so the validator can reject non-text values.
type Submission struct {
	Fields map[string]any
	Token  string
}

// Text returns the string value of a field, or "" when it is absent or not a string.
func (s Submission) Text(field string) string {
	v, _ := s.Fields[field].(string)
	return v
}

// Inquiry is a validated and sanitized submission, ready for notification.
// It is never persisted by the intake pipeline itself.
type Inquiry struct {
	ID           string      `json:"id"`
	Kind         InquiryKind `json:"kind"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone,omitempty"`
	Organization string      `json:"organization"`
	Role         string      `json:"role,omitempty"`
	Service      string      `json:"service,omitempty"`
	Message      string      `json:"message"`
	ReceivedAt   time.Time   `json:"received_at"`
}

// Record returns the inquiry as an ordered field list for append-only record stores.
func (i *Inquiry) Record() []string {
	return []string{
		i.ReceivedAt.UTC().Format(time.RFC3339),
		i.ID,
		string(i.Kind),
		i.Name,
		i.Email,
		i.Phone,
		i.Organization,
		i.Role,
		i.Service,
		i.Message,
	}
}

// VerificationOutcome is the bot-defense decision for one submission.
type VerificationOutcome struct {
	Admitted bool
	Score    *float64 // nil when the service did not report one
	Reason   string
}

// ValidationResult reports the first failed rule, if any.
type ValidationResult struct {
	Valid  bool
	Field  string
	Reason string
}
