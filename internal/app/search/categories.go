package search

// Category is a curated browse entry backed by a canned query.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Query       string `json:"query"`
	Description string `json:"description"`
}

// Categories returns the curated browse categories.
func Categories() []Category {
	return []Category{
		{ID: "trending", Name: "Trending", Query: "música trending 2024", Description: "Lo más popular ahora"},
		{ID: "pop", Name: "Pop", Query: "pop music hits", Description: "Los mejores hits pop"},
		{ID: "rock", Name: "Rock", Query: "rock music classics", Description: "Rock clásico y moderno"},
		{ID: "electronic", Name: "Electronic", Query: "electronic music EDM", Description: "Música electrónica y EDM"},
		{ID: "latin", Name: "Latino", Query: "música latina reggaeton", Description: "Lo mejor de la música latina"},
		{ID: "indie", Name: "Indie", Query: "indie music alternative", Description: "Indie y música alternativa"},
	}
}

// CategoryByID returns the category with the given id.
func CategoryByID(id string) (Category, bool) {
	for _, c := range Categories() {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
