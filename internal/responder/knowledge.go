package responder

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var builtinKnowledge []byte

// Owner describes the person the knowledge base is about.
type Owner struct {
	Name      string `yaml:"name" json:"name"`
	FirstName string `yaml:"first_name" json:"first_name"`
	Email     string `yaml:"email" json:"email"`
}

// QuickReply is a preset prompt offered before the first message.
type QuickReply struct {
	Label   string `yaml:"label" json:"label"`
	Message string `yaml:"message" json:"message"`
}

// Replies holds the candidate texts for one category. In YAML it may be
// written as a single string or as a list of strings.
type Replies []string

func (r *Replies) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*r = Replies{s}
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*r = Replies(list)
	default:
		return fmt.Errorf("line %d: replies must be a string or a list of strings", node.Line)
	}
	return nil
}

// KnowledgeBase maps every category to its canned replies. It is built
// once at startup and never modified afterwards.
type KnowledgeBase struct {
	Owner        Owner                `yaml:"owner"`
	Responses    map[Category]Replies `yaml:"responses"`
	QuickReplies []QuickReply         `yaml:"quick_replies"`
}

// DefaultKnowledge returns the knowledge base compiled into the binary.
func DefaultKnowledge() (*KnowledgeBase, error) {
	kb, err := ParseKnowledge(builtinKnowledge)
	if err != nil {
		return nil, fmt.Errorf("built-in knowledge base: %w", err)
	}
	return kb, nil
}

// LoadKnowledge reads a knowledge base from a YAML file. An empty path
// selects the built-in knowledge base.
func LoadKnowledge(path string) (*KnowledgeBase, error) {
	if path == "" {
		return DefaultKnowledge()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge base: %w", err)
	}
	kb, err := ParseKnowledge(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return kb, nil
}

// ParseKnowledge decodes and validates a YAML knowledge base.
func ParseKnowledge(data []byte) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("parsing knowledge base: %w", err)
	}
	if err := kb.validate(); err != nil {
		return nil, err
	}
	return &kb, nil
}

func (kb *KnowledgeBase) validate() error {
	for c := range kb.Responses {
		if !c.Valid() {
			return fmt.Errorf("unknown category %q", c)
		}
	}
	for _, c := range Categories() {
		replies := kb.Responses[c]
		if len(replies) == 0 {
			return fmt.Errorf("category %q has no replies", c)
		}
		for i, text := range replies {
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("category %q: reply %d is empty", c, i)
			}
		}
	}
	for i, q := range kb.QuickReplies {
		if strings.TrimSpace(q.Message) == "" {
			return fmt.Errorf("quick reply %d has no message", i)
		}
	}
	return nil
}

// Replies returns a copy of the candidates for c.
func (kb *KnowledgeBase) Replies(c Category) []string {
	return append([]string(nil), kb.Responses[c]...)
}
