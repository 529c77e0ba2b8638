package prompts

// Category groups adversarial phrases by the kind of degradation they describe.
type Category string

const (
	CategoryWeather  Category = "weather"
	CategoryLighting Category = "lighting"
	CategoryCamera   Category = "camera"
)

// Template renders a class label and phrase into a generation prompt.
const Template = "a photo of a %s %s, highly detailed, realistic"

var categoryOrder = []Category{CategoryWeather, CategoryLighting, CategoryCamera}

var catalog = map[Category][]string{
	CategoryWeather: {
		"in heavy fog",
		"during a rainstorm",
		"in snowy weather",
		"with sandstorm dust",
		"in overcast lighting",
	},
	CategoryLighting: {
		"at night with low light",
		"with harsh lens flare",
		"in deep shadows",
		"under flickering neon lights",
	},
	CategoryCamera: {
		"with motion blur",
		"out of focus",
		"with jpeg compression artifacts",
		"captured by a low resolution cctv camera",
	},
}

// Categories returns the phrase categories in catalog order.
func Categories() []Category {
	return append([]Category(nil), categoryOrder...)
}

// PhrasesFor returns a copy of the phrases in one category.
func PhrasesFor(c Category) []string {
	return append([]string(nil), catalog[c]...)
}

// Phrases returns every phrase, concatenated in category order.
func Phrases() []string {
	var all []string
	for _, c := range categoryOrder {
		all = append(all, catalog[c]...)
	}
	return all
}
