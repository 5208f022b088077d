package gemini

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/phrazzld/leadflow/internal/domain"
)

//go:embed prompts/lead_summary.tmpl
var promptFS embed.FS

const (
	promptTemplateName = "lead_summary.tmpl"
	phonePlaceholder   = "Not provided"
)

// promptData represents the data passed to the prompt template
type promptData struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Source    string
	CreatedAt string
}

func loadPromptTemplate() (*template.Template, error) {
	return template.ParseFS(promptFS, "prompts/"+promptTemplateName)
}

// renderPrompt fills the template with the lead's stored fields only.
func renderPrompt(tmpl *template.Template, lead *domain.Lead) (string, error) {
	data := promptData{
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Email:     lead.Email,
		Phone:     phonePlaceholder,
		Source:    string(lead.Source),
		CreatedAt: lead.CreatedAt.UTC().Format(time.RFC3339),
	}
	if lead.Phone != nil && *lead.Phone != "" {
		data.Phone = *lead.Phone
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
