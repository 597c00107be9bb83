package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		title, slug string
		want        Category
	}{
		{"Trump wins election", "2024-trump", CategoryPolitics},
		{"Bitcoin above $100k", "btc-100k", CategoryCrypto},
		{"Random topic", "xyz", CategoryOther},
		{"Lakers vs Celtics", "nba-lal-bos-2025-01-10", CategorySports},
		{"Fed decision in March?", "fed-decision-in-march", CategoryMacro},
		{"Will the Federal Reserve cut rates?", "", CategoryMacro},
		{"S&P 500 closes above 6000?", "spx-6000", CategoryMacro},
		{"", "", CategoryOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.title, tc.slug), "%q / %q", tc.title, tc.slug)
	}
}

func TestClassify_PrecedencePoliticsFirst(t *testing.T) {
	// Coinciden Politics y Crypto: gana Politics.
	assert.Equal(t, CategoryPolitics, Classify("Will Trump launch a bitcoin reserve?", ""))
}

func TestClassify_WholeWordsOnly(t *testing.T) {
	// "whether" contiene "eth" y "feds" no es "fed"
	assert.Equal(t, CategoryOther, Classify("Whether it rains in Paris", "paris-rain"))
}

func TestClassify_CaseInsensitive(t *testing.T) {
	assert.Equal(t, CategoryCrypto, Classify("ETHEREUM ETF APPROVED", ""))
}

func TestCategories_Order(t *testing.T) {
	assert.Equal(t, []Category{CategoryPolitics, CategoryCrypto, CategorySports, CategoryMacro, CategoryOther}, Categories())
	assert.Equal(t, "Macro / Rates", string(CategoryMacro))
}
