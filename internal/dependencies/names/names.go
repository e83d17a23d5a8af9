package names

import (
	"github.com/mcoot/matchlobby/internal/dependencies/random"
)

// Generator supplies display names for newly connected identities
type Generator interface {
	Next() string
}

var adjectives = []string{
	"autumn", "hidden", "bitter", "misty", "silent", "empty", "dry", "dark",
	"summer", "icy", "delicate", "quiet", "white", "cool", "spring", "winter",
	"patient", "twilight", "dawn", "crimson", "wispy", "weathered", "blue",
	"billowing", "broken", "cold", "damp", "falling", "frosty", "green", "long",
	"late", "lingering", "bold", "little", "morning", "muddy", "old", "red",
	"rough", "still", "small", "sparkling", "shy", "wandering", "withered",
	"wild", "black", "young", "holy", "solitary", "fragrant", "aged", "snowy",
	"proud", "floral", "restless", "divine", "polished", "ancient", "purple",
	"lively", "nameless",
}

var nouns = []string{
	"waterfall", "river", "breeze", "moon", "rain", "wind", "sea", "morning",
	"snow", "lake", "sunset", "pine", "shadow", "leaf", "dawn", "glitter",
	"forest", "hill", "cloud", "meadow", "sun", "glade", "bird", "brook",
	"butterfly", "bush", "dew", "dust", "field", "fire", "flower", "firefly",
	"feather", "grass", "haze", "mountain", "night", "pond", "darkness",
	"snowflake", "silence", "sound", "sky", "shape", "surf", "thunder",
	"violet", "water", "wildflower", "wave", "resonance", "wood", "dream",
	"cherry", "tree", "fog", "frost", "voice", "paper", "frog", "smoke", "star",
}

// Plain generates "adjective-noun" names
type Plain struct {
	random random.Random
}

// New creates a Plain generator drawing from the given source
func New(rnd random.Random) *Plain {
	return &Plain{random: rnd}
}

// Next returns a new display name
func (p *Plain) Next() string {
	return adjectives[p.random.Intn(len(adjectives))] + "-" + nouns[p.random.Intn(len(nouns))]
}

var _ Generator = (*Plain)(nil)
