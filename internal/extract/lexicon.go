package extract

import "intel-system/internal/store"

// Category lexicons are matched against lowercased tokens. The iteration
// order below breaks count ties, so it must stay fixed.
var categoryOrder = []store.Category{
	store.CategoryMilitary,
	store.CategoryHumanitarian,
	store.CategoryPolitical,
	store.CategoryEconomic,
}

var categoryWords = map[store.Category]map[string]bool{
	store.CategoryMilitary: wordSet(
		"military", "war", "troops", "missile", "missiles", "strike", "strikes",
		"airstrike", "airstrikes", "invasion", "offensive", "shelling", "artillery",
		"weapons", "army", "combat", "drone", "drones", "frontline", "ceasefire",
		"battalion", "mobilization", "bombardment",
	),
	store.CategoryHumanitarian: wordSet(
		"humanitarian", "refugee", "refugees", "famine", "casualties", "civilians",
		"aid", "displacement", "displaced", "evacuation", "evacuations", "hospital",
		"hospitals", "shelter", "epidemic", "starvation", "orphans",
	),
	store.CategoryPolitical: wordSet(
		"election", "elections", "government", "parliament", "president",
		"minister", "diplomacy", "diplomatic", "sanctions", "treaty", "coup",
		"vote", "referendum", "legislation", "cabinet", "opposition", "summit",
	),
	store.CategoryEconomic: wordSet(
		"economy", "economic", "market", "markets", "trade", "inflation", "gdp",
		"bank", "banks", "stocks", "business", "tariff", "tariffs", "currency",
		"investment", "exports", "imports", "recession", "earnings",
	),
}

var negativeWords = wordSet(
	"killed", "dead", "deaths", "attack", "attacks", "attacked", "crisis",
	"deadly", "destroyed", "destruction", "wounded", "injured", "threat",
	"threats", "fear", "collapse", "violence", "violent", "bombing", "bombed",
	"devastating", "devastated", "catastrophe", "disaster", "massacre", "losses",
	"escalation", "worsening", "grim", "failure",
)

var positiveWords = wordSet(
	"peace", "agreement", "recovery", "growth", "stability", "cooperation",
	"breakthrough", "progress", "rebuilding", "relief", "truce", "stabilized",
	"improvement", "gains", "successful", "prosperity",
)

// locationNames and orgNames are matched case-sensitively against
// original-case tokens; multi-word names are matched as token bigrams.
var locationNames = nameSet(
	"Kyiv", "Kharkiv", "Donetsk", "Crimea", "Ukraine", "Russia", "Moscow",
	"Washington", "Beijing", "Taiwan", "Taipei", "Gaza", "Israel", "Jerusalem",
	"Tehran", "Iran", "Syria", "Damascus", "Lebanon", "Beirut", "Brussels",
	"Berlin", "Paris", "London", "Warsaw", "Sudan", "Khartoum", "Yemen",
	"Kabul", "Afghanistan", "Venezuela", "Caracas", "Pyongyang", "Seoul",
)

var orgNames = nameSet(
	"NATO", "UN", "EU", "Kremlin", "Pentagon", "OPEC", "IMF", "UNHCR",
	"United Nations", "European Union", "White House", "World Bank",
	"Red Cross", "Security Council",
)

// personTitles mark the token that precedes a personal name.
var personTitles = wordSet(
	"president", "minister", "general", "chancellor", "secretary",
	"ambassador", "senator", "governor", "colonel",
)

var stopWords = wordSet(
	"about", "after", "again", "also", "been", "before", "being", "between",
	"both", "could", "down", "during", "each", "from", "further", "have",
	"having", "here", "into", "itself", "more", "most", "other", "over",
	"said", "same", "should", "some", "such", "than", "that", "their", "them",
	"then", "there", "these", "they", "this", "those", "through", "under",
	"until", "very", "were", "what", "when", "where", "which", "while", "will",
	"with", "would", "your", "because", "against", "officials", "according",
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

type names struct {
	single map[string]bool
	pairs  map[string]bool
}

func nameSet(values ...string) names {
	n := names{single: map[string]bool{}, pairs: map[string]bool{}}
	for _, v := range values {
		if i := indexSpace(v); i >= 0 {
			n.pairs[v] = true
		} else {
			n.single[v] = true
		}
	}
	return n
}

func indexSpace(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}
