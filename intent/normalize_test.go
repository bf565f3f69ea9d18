package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripPoliteness(t *testing.T) {
	cases := map[string]string{
		"Large fries please":        "large fries",
		"two cokes, thanks!":        "two cokes",
		"a beer please thank you.":  "a beer",
		"  Salad pls plz  ":         "salad",
		"water, much appreciated!!": "water",
		"the pasta":                 "the pasta",
		"cheers":                    "",
		"ricotta":                   "ricotta",
		"pasta":                     "pasta",
		"margherita":                "margherita",
		"greek salad with feta":     "greek salad with feta",
		"a pint of bitter ta":       "a pint of bitter",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripPoliteness(in), in)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "fish and chips", Normalize("Fish & Chips!"))
	assert.Equal(t, "mac and cheese", Normalize("Mac-and-Cheese"))
	assert.Equal(t, "creme brulee", Normalize("Crème Brûlée"))
	assert.Equal(t, "i d like a coffee", Normalize("I'd like a coffee, please."))
	assert.Equal(t, "", Normalize("   ...   "))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Large fries please",
		"Fish & Chips!!",
		"  mixed   CASE\ttext  ",
		"thanks, please!",
		"Café au lait & croissant, merci",
		"burger & thanks!",
		"pizza...please?",
		"R&D and&and",
	}
	for _, s := range inputs {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), s)
	}
}

func TestPolitenessDoesNotChangeTokens(t *testing.T) {
	assert.Equal(t, Normalize("large fries"), Normalize("large fries please"))
	assert.Equal(t, Tokens("large fries"), Tokens("large fries please"))
}

func TestDice(t *testing.T) {
	assert.Equal(t, 1.0, Dice("Pizza", "pizza"))
	assert.Equal(t, 0.0, Dice("a", "ab"))
	assert.Equal(t, 0.0, Dice("", "pizza"))
	assert.Equal(t, 0.25, Dice("night", "nacht"))
	assert.Greater(t, Dice("margarita", "margherita"), 0.6)
}

func TestTokenOverlap(t *testing.T) {
	assert.Equal(t, 0.5, TokenOverlap("margarita pizza", "margherita pizza"))
	assert.Equal(t, 1.0, TokenOverlap("pizza", "margherita pizza"))
	assert.Equal(t, 0.0, TokenOverlap("", "pizza"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("margherita pizza", "Margherita Pizza", ""))
	assert.Equal(t, 0.92, Similarity("pizza", "Margherita Pizza", "tomato, basil"))
	assert.Equal(t, 0.92, Similarity("basil", "Margherita Pizza", "tomato, basil"))
	assert.InDelta(t, 0.7457, Similarity("margarita pizza", "Margherita Pizza", ""), 0.001)
	assert.Equal(t, 0.0, Similarity("asdlkjasd", "Caesar Salad", ""))
}
