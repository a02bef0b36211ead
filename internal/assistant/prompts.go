package assistant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts are the system prompts for the two model calls.
type Prompts struct {
	Planning  string `yaml:"planning"`
	Synthesis string `yaml:"synthesis"`
}

func DefaultPrompts() Prompts {
	return Prompts{
		Planning: `You are an analytics AI assistant for a SaaS business.
To answer the user's question, you'll need to decide what data to query.
You have access to several functions that can retrieve specific data from the database.
Think step by step about what data you need, then call the appropriate functions.`,
		Synthesis: `You are an expert SaaS analytics assistant. Analyze the data retrieved from the database and provide insights based on the user's question. Format your response in a clear, professional manner with relevant metrics highlighted. If appropriate, suggest visualizations or further analyses that might be valuable.`,
	}
}

// LoadPrompts reads prompts from a YAML file. An empty path returns the
// defaults, and prompts missing from the file keep their default.
func LoadPrompts(path string) (Prompts, error) {
	if path == "" {
		return DefaultPrompts(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Prompts{}, fmt.Errorf("read prompts %s: %w", path, err)
	}
	return ParsePrompts(data)
}

func ParsePrompts(data []byte) (Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prompts{}, fmt.Errorf("parse prompts: %w", err)
	}
	def := DefaultPrompts()
	if p.Planning == "" {
		p.Planning = def.Planning
	}
	if p.Synthesis == "" {
		p.Synthesis = def.Synthesis
	}
	return p, nil
}
