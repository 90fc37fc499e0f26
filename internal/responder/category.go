package responder

// Category identifies which canned response applies to a user message.
type Category string

const (
	Greeting   Category = "greeting"
	Skills     Category = "skills"
	Projects   Category = "projects"
	Experience Category = "experience"
	Education  Category = "education"
	Contact    Category = "contact"
	About      Category = "about"
	Hiring     Category = "hiring"
	Resume     Category = "resume"
	Thanks     Category = "thanks"
	Goodbye    Category = "goodbye"
	Default    Category = "default"
)

// Categories returns every category in rule priority order, with Default last.
func Categories() []Category {
	return []Category{
		Greeting, Skills, Projects, Experience, Education, Contact,
		About, Hiring, Resume, Thanks, Goodbye, Default,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, k := range Categories() {
		if c == k {
			return true
		}
	}
	return false
}
