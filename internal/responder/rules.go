package responder

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rule pairs a category with the keyword alternatives that select it.
// A rule matches when any keyword occurs in the normalized input on word
// boundaries. Multi-word keywords are bounded as a whole phrase.
type Rule struct {
	Category Category
	Keywords []string

	pattern *regexp.Regexp
}

// Match reports whether the rule selects the already normalized text.
func (r Rule) Match(normalized string) bool {
	return r.pattern.MatchString(normalized)
}

// Pattern returns the compiled expression source, for diagnostics.
func (r Rule) Pattern() string {
	return r.pattern.String()
}

// keywordTable is the ordered dispatch table. Order is significant: the
// first matching rule wins, so "work" sends "work history" to projects.
var keywordTable = []struct {
	category Category
	keywords []string
}{
	{Greeting, []string{"hi", "hello", "hey", "howdy", "hola", "greetings"}},
	{Skills, []string{"skill", "skills", "technologies", "tech stack", "programming", "languages", "what can you do", "what do you know"}},
	{Projects, []string{"project", "projects", "portfolio", "work", "built", "created", "developed"}},
	{Experience, []string{"experience", "internship", "intern", "job", "work history", "career", "professional"}},
	{Education, []string{"education", "study", "college", "university", "degree", "qualification", "school", "btech", "graduate"}},
	{Contact, []string{"contact", "email", "phone", "reach", "connect", "linkedin", "github", "hire", "message"}},
	{About, []string{"about", "who", "tell me", "introduce", "yourself", "background"}},
	{Hiring, []string{"why hire", "hire him", "why should", "strengths", "good at"}},
	{Resume, []string{"resume", "cv", "download", "pdf"}},
	{Thanks, []string{"thanks", "thank you", "thx", "appreciate"}},
	{Goodbye, []string{"bye", "goodbye", "see you", "later"}},
}

// compileRules builds the rule table. ownerName, when non-empty, is added
// to the about keywords so that asking for the owner by name works.
func compileRules(ownerName string) []Rule {
	rules := make([]Rule, 0, len(keywordTable))
	for _, entry := range keywordTable {
		keywords := append([]string(nil), entry.keywords...)
		if entry.category == About {
			if name := Normalize(strings.TrimSpace(ownerName)); name != "" {
				keywords = append(keywords, name)
			}
		}
		rules = append(rules, Rule{
			Category: entry.category,
			Keywords: keywords,
			pattern:  compileKeywords(keywords),
		})
	}
	return rules
}

func compileKeywords(keywords []string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(Normalize(k))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Normalize lower-cases s for matching. Whitespace is left untouched.
func Normalize(s string) string {
	// A Caser keeps state, so each call gets its own.
	return cases.Lower(language.Und).String(s)
}

// classify returns the category of the first rule matching text.
func classify(rules []Rule, text string) Category {
	normalized := Normalize(text)
	for _, r := range rules {
		if r.Match(normalized) {
			return r.Category
		}
	}
	return Default
}
