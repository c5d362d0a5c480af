// Package content holds the static portfolio records rendered on the public
// page. The data is compiled into the binary and never changes at runtime.
package content

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed portfolio.yaml
var portfolioYAML []byte

type Social struct {
	LinkedIn string `yaml:"linkedin"`
	GitHub   string `yaml:"github"`
}

type Profile struct {
	Name        string `yaml:"name"`
	Role        string `yaml:"role"`
	Headline    string `yaml:"headline"`
	About       string `yaml:"about"`
	Location    string `yaml:"location"`
	Email       string `yaml:"email"`
	Personality string `yaml:"personality"`
	Social      Social `yaml:"social"`
}

type NavItem struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

type Skill struct {
	Name     string `yaml:"name"`
	Level    int    `yaml:"level"` // 0-100
	Category string `yaml:"category"`
}

type Project struct {
	ID          int      `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Category    string   `yaml:"category"`
	Image       string   `yaml:"image"`
	GithubURL   string   `yaml:"github_url"`
	LiveURL     string   `yaml:"live_url,omitempty"`
}

type Experience struct {
	ID          int      `yaml:"id"`
	Role        string   `yaml:"role"`
	Company     string   `yaml:"company"`
	Period      string   `yaml:"period"`
	Description []string `yaml:"description"`
}

type Education struct {
	ID          int    `yaml:"id"`
	Degree      string `yaml:"degree"`
	Institution string `yaml:"institution"`
	Period      string `yaml:"period"`
	Description string `yaml:"description,omitempty"`
}

type Certification struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Issuer string `yaml:"issuer"`
	Date   string `yaml:"date"`
	URL    string `yaml:"url,omitempty"`
}

type BlogPost struct {
	ID       int      `yaml:"id"`
	Title    string   `yaml:"title"`
	Excerpt  string   `yaml:"excerpt"`
	Date     string   `yaml:"date"`
	ReadTime string   `yaml:"read_time"`
	Tags     []string `yaml:"tags"`
	Image    string   `yaml:"image"`
}

// Portfolio is everything the public page shows.
type Portfolio struct {
	Profile        Profile         `yaml:"profile"`
	Nav            []NavItem       `yaml:"nav"`
	Skills         []Skill         `yaml:"skills"`
	Projects       []Project       `yaml:"projects"`
	Experience     []Experience    `yaml:"experience"`
	Education      []Education     `yaml:"education"`
	Certifications []Certification `yaml:"certifications"`
	Blog           []BlogPost      `yaml:"blog"`
}

// Load parses the embedded portfolio.
func Load() (*Portfolio, error) {
	return Parse(portfolioYAML)
}

// Parse decodes a portfolio document and checks the fields the page and the
// chat persona rely on.
func Parse(data []byte) (*Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio: %w", err)
	}
	if p.Profile.Name == "" {
		return nil, fmt.Errorf("portfolio profile has no name")
	}
	for _, s := range p.Skills {
		if s.Level < 0 || s.Level > 100 {
			return nil, fmt.Errorf("skill %q level %d out of range", s.Name, s.Level)
		}
	}
	return &p, nil
}

// SkillsByCategory groups skills for display, keeping their original order
// inside each group.
func (p *Portfolio) SkillsByCategory() []SkillGroup {
	index := map[string]int{}
	var groups []SkillGroup
	for _, s := range p.Skills {
		i, ok := index[s.Category]
		if !ok {
			i = len(groups)
			index[s.Category] = i
			groups = append(groups, SkillGroup{Category: s.Category})
		}
		groups[i].Skills = append(groups[i].Skills, s)
	}
	return groups
}

type SkillGroup struct {
	Category string
	Skills   []Skill
}

// SkillNames lists skill names sorted by level, highest first.
func (p *Portfolio) SkillNames() []string {
	skills := make([]Skill, len(p.Skills))
	copy(skills, p.Skills)
	sort.SliceStable(skills, func(i, j int) bool { return skills[i].Level > skills[j].Level })

	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return names
}
