package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const corpusText = "Cat\n\ncat dog\n\n\nDogs\n\ndog dog\nfish\n\n\nFish\n\nfish fish fish\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSingleQueryWithEvaluation(t *testing.T) {
	source := writeFile(t, "corpus.txt", corpusText)
	truth := writeFile(t, "truth.txt", "1\n2\n")

	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"-source", source, "-query", "dog", "-mode", "boolean", "-truth", truth},
		strings.NewReader(""), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		`boolean query "dog" on raw view: 2 matching documents`,
		"Cat",
		"Dogs",
		"precision 0.5000  recall 0.5000",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunReadsQueriesFromStdin(t *testing.T) {
	source := writeFile(t, "corpus.txt", corpusText)

	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"-source", source, "-json", "-limit", "1"},
		strings.NewReader("fish\n\ncat\n"), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	dec := json.NewDecoder(&out)
	var queries []string
	for dec.More() {
		var resp struct {
			Query string `json:"query"`
			Hits  []struct {
				DocID int `json:"doc_id"`
			} `json:"hits"`
		}
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("decoding output: %v", err)
		}
		if len(resp.Hits) != 1 {
			t.Errorf("query %q returned %d hits, want 1", resp.Query, len(resp.Hits))
		}
		queries = append(queries, resp.Query)
	}
	if len(queries) != 2 || queries[0] != "fish" || queries[1] != "cat" {
		t.Errorf("queries = %v, want [fish cat]", queries)
	}
}

func TestRunFrequencyStopwords(t *testing.T) {
	source := writeFile(t, "corpus.txt", corpusText)

	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"-source", source, "-stopwords", "frequency", "-common", "0.6", "-rare", "0",
			"-filtered", "-mode", "boolean", "-query", "dog"},
		strings.NewReader(""), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "on filtered view: 0 matching documents") {
		t.Errorf("dog should be filtered out as a common term:\n%s", out.String())
	}
}

func TestRunRequiresSource(t *testing.T) {
	err := run(context.Background(), []string{"-query", "dog"}, strings.NewReader(""), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected an error without -source")
	}
}
