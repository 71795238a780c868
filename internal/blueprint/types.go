package blueprint

// Course is a reusable course definition loaded from YAML. Materializing
// a blueprint creates real course rows; the blueprint itself is never
// stored.
type Course struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Audience    string   `yaml:"audience"`
	Modules     []Module `yaml:"modules"`
}

// Module is an ordered group of lessons within a blueprint.
type Module struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Lessons     []Lesson `yaml:"lessons"`
}

// Lesson is a single lesson within a blueprint module. Content may be
// inlined in the YAML or provided by a sidecar markdown file whose name
// matches the slug.
type Lesson struct {
	Title           string `yaml:"title"`
	Slug            string `yaml:"slug"`
	DurationMinutes int    `yaml:"duration_minutes"`
	Content         string `yaml:"content"`
}
