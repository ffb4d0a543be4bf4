// Package seed reads dialog records from a YAML file for loading into the
// dialogs table.
//
// The file holds a single "dialogs" list. Each entry needs a category; the
// dialog key is the spoken text and any other key is stored alongside it:
//
//	dialogs:
//	  - category: introduction
//	    dialog: Hi, I am your interviewer today.
//	  - category: technical
//	    dialog: What is a goroutine?
//	    difficulty: easy
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"avatar-interview/internal/domain"
)

type file struct {
	Dialogs []map[string]any `yaml:"dialogs"`
}

func LoadFile(path string) ([]domain.Dialog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: open %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and checks a seed document. It requires exactly one
// introduction so the loaded table can always serve a question set.
func Parse(r io.Reader) ([]domain.Dialog, error) {
	var doc file
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed: empty document")
		}
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	if len(doc.Dialogs) == 0 {
		return nil, errors.New("seed: no dialogs")
	}

	dialogs := make([]domain.Dialog, 0, len(doc.Dialogs))
	intros := 0
	for i, raw := range doc.Dialogs {
		d, err := toDialog(raw)
		if err != nil {
			return nil, fmt.Errorf("seed: dialog %d: %w", i, err)
		}
		if d.IsIntroduction() {
			intros++
		}
		dialogs = append(dialogs, d)
	}
	if intros != 1 {
		return nil, fmt.Errorf("seed: want exactly one %q dialog, got %d", domain.CategoryIntroduction, intros)
	}
	return dialogs, nil
}

func toDialog(raw map[string]any) (domain.Dialog, error) {
	var d domain.Dialog
	extra := make(map[string]any, len(raw))
	for k, v := range raw {
		switch k {
		case "id":
			s, ok := v.(string)
			if !ok {
				return d, fmt.Errorf("id must be a string, got %T", v)
			}
			d.ID = s
		case "category":
			s, ok := v.(string)
			if !ok {
				return d, fmt.Errorf("category must be a string, got %T", v)
			}
			d.Category = s
		case "dialog":
			s, ok := v.(string)
			if !ok {
				return d, fmt.Errorf("dialog must be a string, got %T", v)
			}
			d.Text, d.HasText = s, true
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		d.Extra = extra
	}
	if err := d.Validate(); err != nil {
		return d, err
	}
	return d, nil
}
