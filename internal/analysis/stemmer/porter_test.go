package stemmer

import (
	"strings"
	"testing"
)

func TestStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"running", "run"},
		{"caresses", "caress"},
		{"ponies", "poni"},
		{"ties", "ti"},
		{"caress", "caress"},
		{"cats", "cat"},
		{"feed", "feed"},
		{"agreed", "agre"},
		{"plastered", "plaster"},
		{"bled", "bled"},
		{"motoring", "motor"},
		{"sing", "sing"},
		{"conflated", "conflat"},
		{"troubled", "troubl"},
		{"sized", "size"},
		{"hopping", "hop"},
		{"tanned", "tan"},
		{"falling", "fall"},
		{"hissing", "hiss"},
		{"fizzed", "fizz"},
		{"failing", "fail"},
		{"filing", "file"},
		{"happy", "happi"},
		{"sky", "sky"},
		{"relational", "relat"},
		{"conditional", "condit"},
		{"rational", "ration"},
		{"valenci", "valenc"},
		{"digitizer", "digit"},
		{"generalization", "gener"},
		{"electrical", "electr"},
		{"hopeful", "hope"},
		{"goodness", "good"},
		{"adjustment", "adjust"},
		{"adoption", "adopt"},
		{"controll", "control"},
		{"roll", "roll"},
		{"generate", "gener"},
		{"probate", "probat"},
		{"rate", "rate"},
		{"cease", "ceas"},
	}
	for _, tt := range tests {
		if got := Stem(tt.in); got != tt.want {
			t.Errorf("Stem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStemShortTokens(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "a"},
		{"is", "is"},
		{"AS", "as"},
		{"Go", "go"},
	}
	for _, tt := range tests {
		if got := Stem(tt.in); got != tt.want {
			t.Errorf("Stem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStemLowercases(t *testing.T) {
	if got := Stem("Running"); got != "run" {
		t.Errorf("Stem(%q) = %q, want %q", "Running", got, "run")
	}
	if got := Stem("CARESSES"); got != "caress" {
		t.Errorf("Stem(%q) = %q, want %q", "CARESSES", got, "caress")
	}
}

func TestStemIdempotentOnStems(t *testing.T) {
	stems := []string{
		"run", "caress", "poni", "connect", "hope", "motor", "plaster",
		"adjust", "gener", "digit", "fail", "hiss", "good", "relat",
	}
	for _, s := range stems {
		once := Stem(s)
		if twice := Stem(once); twice != once {
			t.Errorf("Stem(Stem(%q)) = %q, want %q", s, twice, once)
		}
	}
}

func TestStep1b(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"agreed", "agree"},
		{"feed", "feed"},
		{"plastered", "plaster"},
		{"conflated", "conflate"},
		{"troubled", "trouble"},
		{"hoping", "hope"},
		{"hissing", "hiss"},
	}
	for _, tt := range tests {
		if got := string(step1b(word(tt.in))); got != tt.want {
			t.Errorf("step1b(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"tr", 0},
		{"ee", 0},
		{"tree", 0},
		{"y", 0},
		{"by", 0},
		{"trouble", 1},
		{"oats", 1},
		{"trees", 1},
		{"ivy", 1},
		{"troubles", 2},
		{"private", 2},
		{"oaten", 2},
		{"orrery", 2},
	}
	for _, tt := range tests {
		if got := word(tt.in).measure(); got != tt.want {
			t.Errorf("measure(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestConsonantY(t *testing.T) {
	w := word("toy")
	if !w.consonant(2) {
		t.Error("y after a vowel should be a consonant")
	}
	w = word("syzygy")
	if w.consonant(1) {
		t.Error("y after a consonant should be a vowel")
	}
	if !word("yes").consonant(0) {
		t.Error("leading y should be a consonant")
	}
}

func TestStep4IonRequiresSOrT(t *testing.T) {
	if got := Stem("adoption"); got != "adopt" {
		t.Errorf("Stem(adoption) = %q, want adopt", got)
	}
	// "opinion": stem "opin" ends in n, so ion stays.
	if got := string(step4(word("opinion"))); got != "opinion" {
		t.Errorf("step4(opinion) = %q, want opinion", got)
	}
}

func TestStep2Logi(t *testing.T) {
	if got := string(step2(word("analogi"))); got != "analog" {
		t.Errorf("step2(analogi) = %q, want analog", got)
	}
}

func TestPorterImplementsStemmer(t *testing.T) {
	var s Stemmer = Porter{}
	if got := s.Stem("running"); got != "run" {
		t.Errorf("Porter{}.Stem(running) = %q, want run", got)
	}
}

func TestStemAll(t *testing.T) {
	got := StemAll(Porter{}, []string{"dogs", "running", "the"})
	want := []string{"dog", "run", "the"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("StemAll = %v, want %v", got, want)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "porter", "snowball"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q) error: %v", name, err)
		}
	}
	if _, err := ByName("lancaster"); err == nil {
		t.Error("ByName(lancaster) should fail")
	}
}

func TestSnowball(t *testing.T) {
	s := Snowball{Language: "english"}
	tests := []struct {
		in   string
		want string
	}{
		{"running", "run"},
		{"Dogs", "dog"},
		{"generously", "generous"},
	}
	for _, tt := range tests {
		if got := s.Stem(tt.in); got != tt.want {
			t.Errorf("Snowball.Stem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := (Snowball{Language: "klingon"}).Stem("Qapla"); got != "qapla" {
		t.Errorf("unsupported language should return the lower-cased token, got %q", got)
	}
}

func BenchmarkStem(b *testing.B) {
	words := []string{
		"running", "generalization", "conditional", "hopefulness",
		"adjustment", "electrical", "caresses", "motoring",
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, w := range words {
			Stem(w)
		}
	}
}
