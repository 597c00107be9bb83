package domain

import (
	"strings"
	"unicode"
)

// Category es la categoría temática de un mercado. Conjunto cerrado.
type Category string

const (
	CategoryPolitics Category = "Politics"
	CategoryCrypto   Category = "Crypto"
	CategorySports   Category = "Sports"
	CategoryMacro    Category = "Macro / Rates"
	CategoryOther    Category = "Other"
)

// Categories devuelve las categorías en orden de precedencia.
func Categories() []Category {
	return []Category{CategoryPolitics, CategoryCrypto, CategorySports, CategoryMacro, CategoryOther}
}

// rank es la posición de la categoría en la precedencia; se usa para desempates.
func (c Category) rank() int {
	for i, cat := range Categories() {
		if cat == c {
			return i
		}
	}
	return len(Categories())
}

// Las keywords de una palabra se comparan contra tokens completos ("eth" no matchea "whether").
// Las de varias palabras se buscan como frase dentro del texto normalizado.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryPolitics, []string{
		"trump", "biden", "harris", "obama", "election", "elections", "president", "presidential",
		"senate", "congress", "house seat", "democrat", "democrats", "democratic", "republican",
		"republicans", "gop", "governor", "mayor", "primary", "nominee", "vote", "poll", "polls",
		"parliament", "prime minister", "impeach", "impeachment", "cabinet", "electoral", "putin",
		"zelensky", "vance", "newsom", "desantis",
	}},
	{CategoryCrypto, []string{
		"bitcoin", "btc", "ethereum", "eth", "crypto", "cryptocurrency", "solana", "dogecoin",
		"doge", "xrp", "ripple", "cardano", "binance", "coinbase", "stablecoin", "usdt", "usdc",
		"altcoin", "memecoin", "airdrop", "defi", "nft", "blockchain", "satoshi", "microstrategy",
	}},
	{CategorySports, []string{
		"nba", "nfl", "mlb", "nhl", "mls", "ufc", "soccer", "football", "basketball", "baseball",
		"hockey", "tennis", "golf", "f1", "formula 1", "super bowl", "world cup", "champions league",
		"premier league", "la liga", "serie a", "bundesliga", "olympics", "wimbledon", "playoffs",
		"finals", "grand slam", "boxing", "cricket", "stanley cup", "world series", "mvp",
	}},
	{CategoryMacro, []string{
		"fed", "fomc", "federal reserve", "interest rate", "interest rates", "rate cut", "rate cuts",
		"rate hike", "rate hikes", "bps", "inflation", "cpi", "pce", "gdp", "recession",
		"unemployment", "jobs report", "nonfarm", "payrolls", "treasury", "treasuries", "yield",
		"yields", "powell", "ecb", "boe", "tariff", "tariffs", "s&p 500", "nasdaq", "dow jones",
	}},
}

// Classify asigna una categoría a un mercado a partir de su título y slug.
// Función total: si ninguna keyword coincide devuelve CategoryOther.
// Las categorías se evalúan en orden de precedencia y gana la primera que coincide.
func Classify(title, slug string) Category {
	text := strings.ToLower(title + " " + slug)
	normalized, tokens := tokenize(text)

	for _, set := range categoryKeywords {
		for _, kw := range set.keywords {
			if matchesKeyword(kw, normalized, tokens) {
				return set.category
			}
		}
	}
	return CategoryOther
}

func matchesKeyword(kw, normalized string, tokens map[string]struct{}) bool {
	if strings.ContainsAny(kw, " &") {
		return strings.Contains(" "+normalized+" ", " "+kw+" ")
	}
	_, ok := tokens[kw]
	return ok
}

// tokenize separa el texto en palabras alfanuméricas. Devuelve también el texto
// con los separadores colapsados a un espacio, para buscar frases.
func tokenize(text string) (string, map[string]struct{}) {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '&'
	})
	tokens := make(map[string]struct{}, len(words))
	for _, w := range words {
		tokens[w] = struct{}{}
	}
	return strings.Join(words, " "), tokens
}
