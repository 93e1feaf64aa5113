package messaging

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/remotive/saleshub/internal/domain/shared"
)

// Template names known to the notifier.
const (
	TemplateLeadAssigned      = "lead_assigned"
	TemplateWelcome           = "welcome"
	TemplateQuoteSent         = "quote_sent"
	TemplateDeliveryScheduled = "delivery_scheduled"
	TemplateDuplicateInquiry  = "duplicate_inquiry"
)

// Template is a named notification with a subject and body.
type Template struct {
	Name    string
	Subject string
	Body    string
}

// TemplateData is what templates can reference.
type TemplateData struct {
	Dealership string
	Customer   TemplateCustomer
	Rep        TemplateRep
	Extra      map[string]string
}

// TemplateCustomer is the customer slice exposed to templates.
type TemplateCustomer struct {
	Name        string
	FirstName   string
	Email       string
	Phone       string
	Source      string
	TrailerType string
	StockNumber string
}

// TemplateRep is the rep slice exposed to templates.
type TemplateRep struct {
	Name      string
	FirstName string
	Email     string
	Phone     string
}

// FirstName returns the first word of a full name.
func FirstName(full string) string {
	full = strings.TrimSpace(full)
	if i := strings.IndexAny(full, " \t"); i > 0 {
		return full[:i]
	}
	return full
}

var defaultTemplates = []Template{
	{
		Name:    TemplateLeadAssigned,
		Subject: "New lead: {{.Customer.Name}}",
		Body: `Hi {{.Rep.FirstName}}, you have a new {{.Customer.Source}} lead: {{.Customer.Name}}` +
			`{{with .Customer.Phone}} {{.}}{{end}}{{with .Customer.Email}} {{.}}{{end}}.` +
			`{{with .Customer.TrailerType}} Interested in: {{.}}.{{end}}`,
	},
	{
		Name:    TemplateWelcome,
		Subject: "Thanks for contacting {{.Dealership}}",
		Body: `Hi {{.Customer.FirstName}}, thanks for reaching out to {{.Dealership}}! ` +
			`I'm {{.Rep.FirstName}} and I'll help you find the right trailer.{{with .Rep.Phone}} Call or text me at {{.}}.{{end}}`,
	},
	{
		Name:    TemplateQuoteSent,
		Subject: "Your quote {{index .Extra \"number\"}} from {{.Dealership}}",
		Body: `Hi {{.Customer.FirstName}}, your quote {{index .Extra "number"}} for {{index .Extra "total"}} is ready. ` +
			`It is valid until {{index .Extra "valid_until"}}. Reply here with any questions. - {{.Rep.FirstName}}`,
	},
	{
		Name:    TemplateDeliveryScheduled,
		Subject: "Your delivery from {{.Dealership}}",
		Body:    `Hi {{.Customer.FirstName}}, your trailer is scheduled for delivery on {{index .Extra "date"}}. - {{.Rep.FirstName}}`,
	},
	{
		Name:    TemplateDuplicateInquiry,
		Subject: "{{.Customer.Name}} inquired again",
		Body:    `Heads up {{.Rep.FirstName}}: {{.Customer.Name}} just inquired again via {{.Customer.Source}}.`,
	},
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Renderer renders notification templates.
type Renderer struct {
	templates map[string]compiled
}

// NewRenderer compiles the built-in templates plus any overrides.
// An override with an existing name replaces the default.
func NewRenderer(overrides ...Template) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]compiled)}
	for _, t := range append(append([]Template{}, defaultTemplates...), overrides...) {
		if err := r.add(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) add(t Template) error {
	subj, err := template.New(t.Name + ".subject").Option("missingkey=zero").Parse(t.Subject)
	if err != nil {
		return shared.NewDomainError("INVALID_TEMPLATE", "Template "+t.Name+" subject: "+err.Error())
	}
	body, err := template.New(t.Name + ".body").Option("missingkey=zero").Parse(t.Body)
	if err != nil {
		return shared.NewDomainError("INVALID_TEMPLATE", "Template "+t.Name+" body: "+err.Error())
	}
	r.templates[t.Name] = compiled{subject: subj, body: body}
	return nil
}

// Has reports whether a template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render executes the named template.
func (r *Renderer) Render(name string, data TemplateData) (subject, body string, err error) {
	c, ok := r.templates[name]
	if !ok {
		return "", "", shared.NewDomainError("TEMPLATE_NOT_FOUND", "Unknown message template: "+name)
	}
	if data.Customer.FirstName == "" {
		data.Customer.FirstName = FirstName(data.Customer.Name)
	}
	if data.Rep.FirstName == "" {
		data.Rep.FirstName = FirstName(data.Rep.Name)
	}
	if data.Extra == nil {
		data.Extra = map[string]string{}
	}
	var sb, bb bytes.Buffer
	if err := c.subject.Execute(&sb, data); err != nil {
		return "", "", err
	}
	if err := c.body.Execute(&bb, data); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(sb.String()), strings.TrimSpace(bb.String()), nil
}
