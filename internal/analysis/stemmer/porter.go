package stemmer

import "strings"

// Porter implements the Porter (1980) suffix-stripping algorithm, including
// the logi -> log rule in step 2.
type Porter struct{}

func (Porter) Stem(token string) string {
	return Stem(token)
}

// Stem lower-cases token and applies steps 1a through 5b. Tokens of at most
// two characters are returned lower-cased and otherwise unchanged.
func Stem(token string) string {
	w := word([]rune(strings.ToLower(token)))
	if len(w) <= 2 {
		return string(w)
	}
	w = step1a(w)
	w = step1b(w)
	w = step1c(w)
	w = step2(w)
	w = step3(w)
	w = step4(w)
	w = step5a(w)
	w = step5b(w)
	return string(w)
}

type word []rune

type rule struct {
	suffix      string
	replacement string
}

var step2Rules = []rule{
	{"ational", "ate"},
	{"tional", "tion"},
	{"enci", "ence"},
	{"anci", "ance"},
	{"izer", "ize"},
	{"abli", "able"},
	{"alli", "al"},
	{"entli", "ent"},
	{"eli", "e"},
	{"ousli", "ous"},
	{"ization", "ize"},
	{"ation", "ate"},
	{"ator", "ate"},
	{"alism", "al"},
	{"iveness", "ive"},
	{"fulness", "ful"},
	{"ousness", "ous"},
	{"aliti", "al"},
	{"iviti", "ive"},
	{"biliti", "ble"},
	{"logi", "log"},
}

var step3Rules = []rule{
	{"icate", "ic"},
	{"ative", ""},
	{"alize", "al"},
	{"iciti", "ic"},
	{"ical", "ic"},
	{"ful", ""},
	{"ness", ""},
}

var step4Suffixes = []string{
	"al", "ance", "ence", "er", "ic", "able", "ible", "ant", "ement",
	"ment", "ent", "ion", "ou", "ism", "ate", "iti", "ous", "ive", "ize",
}

// consonant reports whether w[i] is a consonant. y is a consonant at the
// start of the word or after a vowel, and a vowel after a consonant.
func (w word) consonant(i int) bool {
	switch w[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		if i == 0 {
			return true
		}
		return !w.consonant(i - 1)
	default:
		return true
	}
}

// measure counts the VC sequences in w, i.e. m in [C](VC)^m[V].
func (w word) measure() int {
	m := 0
	prevVowel := false
	for i := range w {
		c := w.consonant(i)
		if c && prevVowel {
			m++
		}
		prevVowel = !c
	}
	return m
}

func (w word) hasVowel() bool {
	for i := range w {
		if !w.consonant(i) {
			return true
		}
	}
	return false
}

func (w word) endsDoubleConsonant() bool {
	n := len(w)
	return n >= 2 && w[n-1] == w[n-2] && w.consonant(n-1)
}

// endsCVC reports a consonant-vowel-consonant ending whose final consonant
// is not w, x or y.
func (w word) endsCVC() bool {
	n := len(w)
	if n < 3 {
		return false
	}
	if !w.consonant(n-3) || w.consonant(n-2) || !w.consonant(n-1) {
		return false
	}
	switch w[n-1] {
	case 'w', 'x', 'y':
		return false
	}
	return true
}

func (w word) hasSuffix(s string) bool {
	if len(s) > len(w) {
		return false
	}
	off := len(w) - len(s)
	for i := 0; i < len(s); i++ {
		if w[off+i] != rune(s[i]) {
			return false
		}
	}
	return true
}

// trim returns w without its last n runes.
func (w word) trim(n int) word {
	return w[:len(w)-n]
}

func (w word) with(s string) word {
	out := make(word, len(w), len(w)+len(s))
	copy(out, w)
	return append(out, []rune(s)...)
}

func step1a(w word) word {
	switch {
	case w.hasSuffix("sses"):
		return w.trim(2)
	case w.hasSuffix("ies"):
		return w.trim(2)
	case w.hasSuffix("ss"):
		return w
	case w.hasSuffix("s"):
		return w.trim(1)
	}
	return w
}

func step1b(w word) word {
	if w.hasSuffix("eed") {
		if w.trim(3).measure() > 0 {
			return w.trim(1)
		}
		return w
	}

	var stem word
	switch {
	case w.hasSuffix("ed"):
		stem = w.trim(2)
	case w.hasSuffix("ing"):
		stem = w.trim(3)
	default:
		return w
	}
	if !stem.hasVowel() {
		return w
	}

	switch {
	case stem.hasSuffix("at"), stem.hasSuffix("bl"), stem.hasSuffix("iz"):
		return stem.with("e")
	case stem.endsDoubleConsonant():
		switch stem[len(stem)-1] {
		case 'l', 's', 'z':
			return stem
		}
		return stem.trim(1)
	case stem.measure() == 1 && stem.endsCVC():
		return stem.with("e")
	}
	return stem
}

func step1c(w word) word {
	if w.hasSuffix("y") && w.trim(1).hasVowel() {
		return w.trim(1).with("i")
	}
	return w
}

// applyFirst rewrites the first rule whose suffix matches, provided the
// remaining stem has measure > 0. Later rules are not tried once a suffix
// matches, even if the measure test fails.
func applyFirst(w word, rules []rule) word {
	for _, r := range rules {
		if !w.hasSuffix(r.suffix) {
			continue
		}
		stem := w.trim(len(r.suffix))
		if stem.measure() > 0 {
			return stem.with(r.replacement)
		}
		return w
	}
	return w
}

func step2(w word) word {
	return applyFirst(w, step2Rules)
}

func step3(w word) word {
	return applyFirst(w, step3Rules)
}

// step4 strips the first matching suffix when the stem has measure > 1.
// ion only matches after s or t; otherwise the scan moves on.
func step4(w word) word {
	for _, suffix := range step4Suffixes {
		if !w.hasSuffix(suffix) {
			continue
		}
		stem := w.trim(len(suffix))
		if suffix == "ion" {
			if len(stem) == 0 {
				return w
			}
			if last := stem[len(stem)-1]; last != 's' && last != 't' {
				continue
			}
		}
		if stem.measure() > 1 {
			return stem
		}
		return w
	}
	return w
}

func step5a(w word) word {
	if !w.hasSuffix("e") {
		return w
	}
	stem := w.trim(1)
	m := stem.measure()
	if m > 1 || (m == 1 && !stem.endsCVC()) {
		return stem
	}
	return w
}

func step5b(w word) word {
	if w.measure() > 1 && w.endsDoubleConsonant() && w.hasSuffix("l") {
		return w.trim(1)
	}
	return w
}
