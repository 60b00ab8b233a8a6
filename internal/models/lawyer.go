package models

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/lawyers.yaml
var lawyersYAML []byte

// Lawyer is an entry of the static lawyer directory.
type Lawyer struct {
	ID              int    `yaml:"id"`
	Name            string `yaml:"name"`
	Specialty       string `yaml:"specialty"`
	Avatar          string `yaml:"avatar"`
	Username        string `yaml:"username"`
	Email           string `yaml:"email"`
	Phone           string `yaml:"phone"`
	Education       string `yaml:"education"`
	LawFirm         string `yaml:"law_firm"`
	Experience      string `yaml:"experience"`
	ConsultationFee string `yaml:"consultation_fee"`
}

// Initials returns the avatar text, deriving it from the name if unset.
func (l Lawyer) Initials() string {
	if l.Avatar != "" {
		return l.Avatar
	}
	var b strings.Builder
	for _, part := range strings.Fields(l.Name) {
		b.WriteString(strings.ToUpper(part[:1]))
	}
	return b.String()
}

var (
	lawyersOnce sync.Once
	lawyers     []Lawyer
	lawyersErr  error
)

// Lawyers returns the embedded lawyer directory.
func Lawyers() ([]Lawyer, error) {
	lawyersOnce.Do(func() {
		lawyers, lawyersErr = ParseLawyers(lawyersYAML)
	})
	out := make([]Lawyer, len(lawyers))
	copy(out, lawyers)
	return out, lawyersErr
}

// ParseLawyers decodes a YAML lawyer directory.
func ParseLawyers(data []byte) ([]Lawyer, error) {
	var list []Lawyer
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse lawyer directory: %w", err)
	}
	return list, nil
}
