package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/dresscode/pkg/mailer"
	mailtpl "github.com/oksasatya/dresscode/pkg/mailer/templates"
)

// SubjectFor is the fallback subject when a job carries neither a subject nor
// a renderable template.
func SubjectFor(template string, data map[string]any) string {
	switch strings.ToLower(template) {
	case mailtpl.Welcome:
		if u := fmt.Sprintf("%v", data["Username"]); u != "" && u != "<nil>" {
			return "Welcome to DressCode, @" + u + "!"
		}
		return "Welcome to DressCode!"
	default:
		return "Notification"
	}
}

// EnsureRecipientAndEmail fills Email and RecipientEmail from To when missing.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}

// NormalizeJob trims the template name and fills the recipient fields.
func NormalizeJob(job *mailer.EmailJob) {
	job.Template = strings.ToLower(strings.TrimSpace(job.Template))
	job.To = strings.TrimSpace(job.To)
	EnsureRecipientAndEmail(job)
	if job.Template == "" && job.Subject == "" {
		job.Subject = SubjectFor("", job.Data)
	}
}
