package chat

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Saikiran-Avusula/portfolio/internal/content"
)

var personaTmpl = template.Must(template.New("persona").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`You are "{{.First}}'s AI Assistant", an artificial intelligence agent embedded in the portfolio website of {{.Profile.Name}}.
Your goal is to represent {{.First}} professionally and answer questions about his skills, experience, and projects based on the provided context.

Context about {{.First}}:
- **Name:** {{.Profile.Name}}
- **Role:** {{.Profile.Role}} / {{.Profile.Headline}}
{{- range .Education}}
- **Education:** {{.Degree}} from {{.Institution}} ({{.Period}}).
{{- end}}
- **Experience:**
{{- range .Experience}}
  - {{.Role}} at {{.Company}} ({{.Period}}).
{{- end}}
- **Key Skills:** {{join .Skills ", "}}.
- **Projects:** {{join .Projects ", "}}.
{{- if .Certifications}}
- **Certifications:** {{join .Certifications ", "}}.
{{- end}}
- **Profiles:** LinkedIn ({{.Profile.Social.LinkedIn}}), GitHub ({{.Profile.Social.GitHub}}).
{{- if .Profile.Personality}}
- **Personality:** {{.Profile.Personality}}
{{- end}}

Guidelines:
- Keep answers concise.
- Be polite and professional.
- If asked for contact info, direct them to the contact form or provided social links.
- If asked about specific work history details not in context, suggest contacting him directly.
`))

// keySkills caps how many skills the persona lists.
const keySkills = 6

type personaData struct {
	First          string
	Profile        content.Profile
	Education      []content.Education
	Experience     []content.Experience
	Skills         []string
	Projects       []string
	Certifications []string
}

// Persona renders the system instruction from the portfolio content.
func Persona(p *content.Portfolio) (string, error) {
	d := personaData{
		First:      p.Profile.Name,
		Profile:    p.Profile,
		Education:  p.Education,
		Experience: p.Experience,
	}
	if parts := strings.Fields(p.Profile.Name); len(parts) > 1 {
		d.First = strings.Join(parts[:len(parts)-1], " ")
	}

	d.Skills = p.SkillNames()
	if len(d.Skills) > keySkills {
		d.Skills = d.Skills[:keySkills]
	}
	for _, pr := range p.Projects {
		d.Projects = append(d.Projects, pr.Title)
	}
	for _, c := range p.Certifications {
		d.Certifications = append(d.Certifications, fmt.Sprintf("%s (%s)", c.Name, c.Issuer))
	}

	var sb strings.Builder
	if err := personaTmpl.Execute(&sb, d); err != nil {
		return "", fmt.Errorf("failed to render persona: %w", err)
	}
	return sb.String(), nil
}
