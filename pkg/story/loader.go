package story

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML representation of a story.
//
// Example:
//
//	title: "Under the sea"
//	beats:
//	  - prompt: "You are in the sea, up ahead you see lots of whales."
//	  - prompt: "Which whale do you want to ride?"
//	    answer: r
//	  - prompt: "Amazing work, you have won a golden medal."
//	    answer: end
type File struct {
	Title string     `yaml:"title"`
	Beats []FileBeat `yaml:"beats"`
}

// FileBeat is one entry of [File.Beats]. Answer uses the content tags
// accepted by [ParseAnswer].
type FileBeat struct {
	Prompt string `yaml:"prompt"`
	Answer string `yaml:"answer"`
}

// LoadFile reads a YAML story from path and builds a validated [Script].
func LoadFile(path string) (*Script, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("story: open %q: %w", path, err)
	}
	defer f.Close()

	s, title, err := LoadFromReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("story: parse %q: %w", path, err)
	}
	return s, title, nil
}

// LoadFromReader decodes a YAML story from r. It returns the script and the
// story title (which may be empty).
func LoadFromReader(r io.Reader) (*Script, string, error) {
	var sf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, "", fmt.Errorf("story: decode yaml: %w", err)
	}

	beats := make([]Beat, 0, len(sf.Beats))
	for i, fb := range sf.Beats {
		kind, answer, err := ParseAnswer(fb.Answer)
		if err != nil {
			return nil, "", fmt.Errorf("story: beats[%d]: %w", i, err)
		}
		beats = append(beats, Beat{Prompt: fb.Prompt, Kind: kind, Answer: answer})
	}

	s, err := New(beats)
	if err != nil {
		return nil, "", err
	}
	return s, sf.Title, nil
}

// Encode writes s as YAML to w in the format read by [LoadFromReader].
func Encode(w io.Writer, title string, s *Script) error {
	sf := File{Title: title, Beats: make([]FileBeat, 0, s.Len())}
	for _, b := range s.beats {
		sf.Beats = append(sf.Beats, FileBeat{Prompt: b.Prompt, Answer: b.Tag()})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sf); err != nil {
		return fmt.Errorf("story: encode yaml: %w", err)
	}
	return enc.Close()
}
