// Package classification assigns a spending category to transactions using a
// deterministic rule table. Rules are keyword-anchored regex patterns over
// the normalized description; an Aho-Corasick pass prefilters candidates so
// thousands of rules stay a single scan per description.
package classification

import (
	"regexp"
	"sort"

	"github.com/cloudflare/ahocorasick"
	"github.com/spf13/viper"

	"github.com/gzaln/fin/extractor/common"
)

// Rule maps a description pattern to a category. Keyword is the literal
// anchor used for prefiltering; Pattern, when set, must also confirm.
type Rule struct {
	Category    string `mapstructure:"category"`
	Subcategory string `mapstructure:"subcategory"`
	Keyword     string `mapstructure:"keyword"`
	Pattern     string `mapstructure:"pattern"`
	Priority    int    `mapstructure:"priority"`

	re *regexp.Regexp
}

// Match is a classification outcome. Confidence is 1.0 for rule hits, by
// construction: rules are deterministic.
type Match struct {
	Category    string
	Subcategory string
	Confidence  float64
}

// Engine holds the compiled rule set.
type Engine struct {
	rules   []Rule
	matcher *ahocorasick.Matcher
}

// NewEngine compiles a rule list. Rules with an invalid regex are dropped;
// rules without a keyword take their pattern literal as keyword when it is a
// plain word.
func NewEngine(rules []Rule) *Engine {
	e := &Engine{}
	keywords := make([][]byte, 0, len(rules))

	for _, r := range rules {
		if r.Pattern != "" {
			re, err := regexp.Compile(`(?i)` + r.Pattern)
			if err != nil {
				continue
			}
			r.re = re
		}
		if r.Keyword == "" {
			r.Keyword = r.Pattern
		}
		r.Keyword = common.NormalizeDescription(r.Keyword)
		if r.Keyword == "" {
			continue
		}
		e.rules = append(e.rules, r)
		keywords = append(keywords, []byte(r.Keyword))
	}

	// Highest priority wins on multiple hits.
	order := make([]int, len(e.rules))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return e.rules[order[a]].Priority > e.rules[order[b]].Priority
	})
	sorted := make([]Rule, len(e.rules))
	sortedKeywords := make([][]byte, len(e.rules))
	for i, idx := range order {
		sorted[i] = e.rules[idx]
		sortedKeywords[i] = keywords[idx]
	}
	e.rules = sorted

	if len(sortedKeywords) > 0 {
		e.matcher = ahocorasick.NewMatcher(sortedKeywords)
	}
	return e
}

// FromConfig loads rules from the viper key "classification.rules".
func FromConfig() (*Engine, error) {
	var rules []Rule
	if err := viper.UnmarshalKey("classification.rules", &rules); err != nil {
		return nil, err
	}
	return NewEngine(rules), nil
}

// Classify returns the best rule match for a description, or false when no
// rule applies.
func (e *Engine) Classify(description string) (Match, bool) {
	if e.matcher == nil {
		return Match{}, false
	}
	normalized := common.NormalizeDescription(description)
	if normalized == "" {
		return Match{}, false
	}

	hits := e.matcher.Match([]byte(normalized))
	if len(hits) == 0 {
		return Match{}, false
	}

	// Rules are priority-sorted, so the lowest index among the hits wins.
	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.rules) {
			continue
		}
		if e.rules[idx].re != nil && !e.rules[idx].re.MatchString(normalized) {
			continue
		}
		if best == -1 || idx < best {
			best = idx
		}
	}
	if best == -1 {
		return Match{}, false
	}

	r := e.rules[best]
	return Match{Category: r.Category, Subcategory: r.Subcategory, Confidence: 1.0}, true
}

// Apply classifies a batch of transactions in place. Payments keep their
// fixed category so a transfer never shows up as spending.
func (e *Engine) Apply(transactions []common.Transaction) {
	for i := range transactions {
		if transactions[i].Type == common.TypePayment {
			transactions[i].Category = "payments"
			continue
		}
		if m, ok := e.Classify(transactions[i].DescriptionNormalized); ok {
			transactions[i].Category = m.Category
			transactions[i].Subcategory = m.Subcategory
		}
	}
}

// DefaultRules is the built-in table used when the config carries none. It
// covers the recurring Mexican merchants that dominate card statements.
func DefaultRules() []Rule {
	mk := func(cat, sub, keyword string, prio int) Rule {
		return Rule{Category: cat, Subcategory: sub, Keyword: keyword, Priority: prio}
	}
	return []Rule{
		mk("food", "convenience", "OXXO", 10),
		mk("food", "supermarket", "WALMART", 10),
		mk("food", "supermarket", "SORIANA", 10),
		mk("food", "supermarket", "CHEDRAUI", 10),
		mk("food", "restaurant", "RAPPI", 5),
		mk("transport", "rideshare", "UBER", 10),
		mk("transport", "rideshare", "DIDI", 10),
		mk("transport", "fuel", "PEMEX", 10),
		mk("entertainment", "streaming", "NETFLIX", 10),
		mk("entertainment", "streaming", "SPOTIFY", 10),
		mk("shopping", "department", "LIVERPOOL", 5),
		mk("shopping", "department", "AMAZON", 10),
		mk("shopping", "department", "MERCADO PAGO", 10),
		mk("health", "pharmacy", "FARMACIA", 10),
		mk("services", "telecom", "TELCEL", 10),
		mk("services", "telecom", "TELMEX", 10),
		mk("fees", "bank", "COMISION", 1),
		mk("fees", "bank", "ANUALIDAD", 1),
	}
}

// EngineFromConfigOrDefault builds the engine from config, falling back to
// the built-in table.
func EngineFromConfigOrDefault() *Engine {
	if eng, err := FromConfig(); err == nil && len(eng.rules) > 0 {
		return eng
	}
	return NewEngine(DefaultRules())
}
