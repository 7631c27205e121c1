// Package prompts holds the model instructions used for classification and
// plan generation. The catalogue is embedded at build time.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/airouter/internal/models"
)

//go:embed prompts.yaml
var catalogueYAML []byte

type Catalogue struct {
	Classifier string                     `yaml:"classifier"`
	Planner    string                     `yaml:"planner"`
	Guidance   map[models.Category]string `yaml:"guidance"`
}

// Load parses the embedded catalogue.
func Load() (*Catalogue, error) {
	return Parse(catalogueYAML)
}

// MustLoad is Load for process start-up, where a broken catalogue is a build defect.
func MustLoad() *Catalogue {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalogue: %w", err)
	}
	if strings.TrimSpace(c.Classifier) == "" || strings.TrimSpace(c.Planner) == "" {
		return nil, fmt.Errorf("prompt catalogue is missing the classifier or planner instruction")
	}
	return &c, nil
}

// PlanSystemPrompt returns the planner instruction followed by the guidance
// for category. Categories without guidance get the bare instruction.
func (c *Catalogue) PlanSystemPrompt(category models.Category) string {
	prompt := c.Planner
	if g, ok := c.Guidance[category]; ok && g != "" {
		prompt += "\n" + g
	}
	return prompt
}
