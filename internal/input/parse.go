// Package input turns what a child types into engine events.
//
// Single keys follow the on-screen hints (c, l, r, h, q). Whole words are
// accepted too and matched forgivingly: a word that sounds like a keyword
// (shared Double Metaphone code and first letter) needs only a modest
// Jaro-Winkler score, so "lefft" and "rite" get through, while unrelated
// words become a help request.
package input

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/storytrail/internal/narrative"
)

const (
	defaultPhoneticThreshold = 0.60
	defaultFuzzyThreshold    = 0.85
)

var keys = map[string]narrative.Event{
	"c": narrative.EventContinue,
	"l": narrative.EventChooseLeft,
	"r": narrative.EventChooseRight,
	"h": narrative.EventRequestHelp,
	"?": narrative.EventRequestHelp,
	"q": narrative.EventQuit,
}

type keyword struct {
	word  string
	event narrative.Event
	codes map[string]struct{}
}

var defaultKeywords = map[narrative.Event][]string{
	narrative.EventContinue:    {"continue", "next", "okay", "go"},
	narrative.EventChooseLeft:  {"left"},
	narrative.EventChooseRight: {"right"},
	narrative.EventRequestHelp: {"help"},
	narrative.EventQuit:        {"quit", "stop", "exit", "bye"},
}

// ParserOption configures a [Parser].
type ParserOption func(*Parser)

// WithPhoneticThreshold sets the Jaro-Winkler score a keyword needs when the
// word sounds like it and starts with the same letter. Default: 0.60.
func WithPhoneticThreshold(v float64) ParserOption {
	return func(p *Parser) { p.phoneticThreshold = v }
}

// WithFuzzyThreshold sets the Jaro-Winkler score a keyword needs without a
// phonetic match. Default: 0.85.
func WithFuzzyThreshold(v float64) ParserOption {
	return func(p *Parser) { p.fuzzyThreshold = v }
}

// WithKeywords adds words for ev on top of the built-in English ones.
func WithKeywords(ev narrative.Event, words ...string) ParserOption {
	return func(p *Parser) {
		for _, w := range words {
			p.add(w, ev)
		}
	}
}

// Parser maps typed text to events. It is read-only after construction and
// safe for concurrent use.
type Parser struct {
	keywords          []keyword
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewParser returns a [Parser] with the built-in keywords.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for ev, words := range defaultKeywords {
		for _, w := range words {
			p.add(w, ev)
		}
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Parser) add(word string, ev narrative.Event) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	p.keywords = append(p.keywords, keyword{word: word, event: ev, codes: codes(word)})
}

// Parse maps one line of input to an event. ok is false for blank input,
// which callers should ignore. Anything non-blank that is not recognised is a
// help request.
func (p *Parser) Parse(line string) (ev narrative.Event, ok bool) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return 0, false
	}
	if len(fields) == 1 {
		if ev, found := keys[fields[0]]; found {
			return ev, true
		}
	}
	for _, f := range fields {
		if ev, found := p.match(strings.Trim(f, ".,!?")); found {
			return ev, true
		}
	}
	return narrative.EventRequestHelp, true
}

func (p *Parser) match(word string) (narrative.Event, bool) {
	if len(word) < 2 {
		return 0, false
	}
	wordCodes := codes(word)

	var (
		best      narrative.Event
		bestScore float64
		phonetic  bool
		found     bool
	)
	for _, k := range p.keywords {
		if k.word == word {
			return k.event, true
		}
		score := matchr.JaroWinkler(word, k.word, false)
		if word[0] == k.word[0] && overlap(wordCodes, k.codes) {
			if score >= p.phoneticThreshold && (!phonetic || score > bestScore) {
				best, bestScore, phonetic, found = k.event, score, true, true
			}
		} else if !phonetic && score >= p.fuzzyThreshold && score > bestScore {
			best, bestScore, found = k.event, score, true
		}
	}
	return best, found
}

func codes(word string) map[string]struct{} {
	out := make(map[string]struct{}, 2)
	primary, secondary := matchr.DoubleMetaphone(word)
	if primary != "" {
		out[primary] = struct{}{}
	}
	if secondary != "" {
		out[secondary] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) bool {
	for c := range a {
		if _, ok := b[c]; ok {
			return true
		}
	}
	return false
}
