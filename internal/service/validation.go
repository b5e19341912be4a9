package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/northfield/backend/internal/model"
)

// FieldRule describes one form field.
type FieldRule struct {
	Name     string
	Required bool
	MaxLen   int // in runes
}

// FormSpec is the set of fields one intake route accepts, in check order.
type FormSpec struct {
	Kind   model.InquiryKind
	Fields []FieldRule
}

var ContactForm = FormSpec{
	Kind: model.KindContact,
	Fields: []FieldRule{
		{Name: model.FieldName, Required: true, MaxLen: 100},
		{Name: model.FieldEmail, Required: true, MaxLen: 254},
		{Name: model.FieldPhone, MaxLen: 30},
		{Name: model.FieldOrganization, Required: true, MaxLen: 200},
		{Name: model.FieldRole, MaxLen: 100},
		{Name: model.FieldMessage, Required: true, MaxLen: 5000},
	},
}

var ConsultationForm = FormSpec{
	Kind: model.KindConsultation,
	Fields: []FieldRule{
		{Name: model.FieldName, Required: true, MaxLen: 100},
		{Name: model.FieldEmail, Required: true, MaxLen: 254},
		{Name: model.FieldPhone, MaxLen: 30},
		{Name: model.FieldOrganization, Required: true, MaxLen: 200},
		{Name: model.FieldRole, MaxLen: 100},
		{Name: model.FieldService, MaxLen: 100},
		{Name: model.FieldMessage, Required: true, MaxLen: 5000},
	},
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9 ()+.\-]+$`)
	nonDigit     = regexp.MustCompile(`[^0-9]`)

	// unsafePatterns is a coarse screen for obviously hostile markup. It is
	// not a sanitizer.
	unsafePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<\s*script`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
		regexp.MustCompile(`(?i)<\s*iframe`),
		regexp.MustCompile(`(?i)data\s*:\s*text/html`),
	}
)

const minPhoneDigits = 10

// Validate runs the checks in order and stops at the first failure:
// required fields, email, phone, content screen, length caps.
func (f FormSpec) Validate(sub model.Submission) model.ValidationResult {
	for _, rule := range f.Fields {
		raw, present := sub.Fields[rule.Name]
		if !present || raw == nil {
			if rule.Required {
				return invalid(rule.Name, "Missing required field: "+rule.Name)
			}
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return invalid(rule.Name, rule.Name+" must be text")
		}
		if rule.Required && strings.TrimSpace(s) == "" {
			return invalid(rule.Name, "Missing required field: "+rule.Name)
		}
	}

	if !emailPattern.MatchString(strings.TrimSpace(sub.Text(model.FieldEmail))) {
		return invalid(model.FieldEmail, "Invalid email format")
	}

	if f.has(model.FieldPhone) {
		if phone := strings.TrimSpace(sub.Text(model.FieldPhone)); phone != "" {
			if !phonePattern.MatchString(phone) || len(nonDigit.ReplaceAllString(phone, "")) < minPhoneDigits {
				return invalid(model.FieldPhone, "Invalid phone number")
			}
		}
	}

	for _, rule := range f.Fields {
		if containsUnsafeContent(sub.Text(rule.Name)) {
			return invalid(rule.Name, "Invalid content detected")
		}
	}

	for _, rule := range f.Fields {
		if rule.MaxLen > 0 && utf8.RuneCountInString(sub.Text(rule.Name)) > rule.MaxLen {
			return invalid(rule.Name, fmt.Sprintf("%s must be at most %d characters", rule.Name, rule.MaxLen))
		}
	}

	return model.ValidationResult{Valid: true}
}

func (f FormSpec) has(name string) bool {
	for _, rule := range f.Fields {
		if rule.Name == name {
			return true
		}
	}
	return false
}

func containsUnsafeContent(s string) bool {
	if s == "" {
		return false
	}
	for _, p := range unsafePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func invalid(field, reason string) model.ValidationResult {
	return model.ValidationResult{Field: field, Reason: reason}
}
