package digest

import "strings"

// Category defines one fixed digest section with its membership keywords.
type Category struct {
	Name     string
	Title    string
	Keywords []string
}

// ScopeAll selects the whole corpus rather than one category.
const ScopeAll = "all"

// Categories is the fixed table of digest sections, in publication order.
// Membership is a case-insensitive substring match over title+description,
// kept deliberately separate from the oracle-backed ranking step.
var Categories = []Category{
	{
		Name:     "sport",
		Title:    "Sport",
		Keywords: []string{"GAA", "hurling", "rugby", "Munster", "football", "sport", "match", "final", "championship"},
	},
	{
		Name:     "business",
		Title:    "Business",
		Keywords: []string{"business", "economy", "jobs", "development", "investment", "company", "enterprise"},
	},
	{
		Name:     "local",
		Title:    "Local News",
		Keywords: []string{"Limerick", "community", "local", "council", "residents", "neighbourhood"},
	},
	{
		Name:     "events",
		Title:    "Events & Culture",
		Keywords: []string{"event", "festival", "concert", "culture", "arts", "music", "theatre", "exhibition"},
	},
	{
		Name:     "politics",
		Title:    "Politics",
		Keywords: []string{"politics", "government", "TD", "council", "election", "policy", "minister"},
	},
}

// CategoryByName looks up a category; ok is false for unknown scopes.
func CategoryByName(name string) (Category, bool) {
	for _, c := range Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Matches reports whether the given title+description text belongs to the
// category.
func (c Category) Matches(title, description string) bool {
	text := strings.ToLower(title + " " + description)
	for _, keyword := range c.Keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
