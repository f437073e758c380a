package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode"

	"github.com/dshills/snipstorm/internal/config/loader"
	"github.com/dshills/snipstorm/internal/snippet"
)

// definitionFile is the layout of a snippet definition file:
//
//	[[snippet]]
//	trigger = "fn"
//	description = "function"
//	body = "func ${1:name}($2) {\n\t$0\n}"
type definitionFile struct {
	Snippets []definition `toml:"snippet"`
}

type definition struct {
	Trigger     string `toml:"trigger"`
	Description string `toml:"description"`
	Body        string `toml:"body"`
}

// LoadSnippets reads snippet definition files in order. A trigger defined
// more than once keeps the position of its first definition and the body of
// its last.
func LoadSnippets(fsys loader.FileSystem, paths ...string) ([]snippet.Snippet, error) {
	if fsys == nil {
		fsys = loader.DefaultFS()
	}

	var out []snippet.Snippet
	index := make(map[string]int)
	for _, path := range paths {
		defs, err := readDefinitions(fsys, path)
		if err != nil {
			return nil, err
		}
		for _, s := range defs {
			if i, ok := index[s.Trigger]; ok {
				out[i] = s
				continue
			}
			index[s.Trigger] = len(out)
			out = append(out, s)
		}
	}
	return out, nil
}

func readDefinitions(fsys loader.FileSystem, path string) ([]snippet.Snippet, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading snippets %s: %w", path, err)
	}

	var file definitionFile
	if err := loader.DecodeStrict(path, data, &file); err != nil {
		return nil, err
	}

	defs := make([]snippet.Snippet, 0, len(file.Snippets))
	for i, d := range file.Snippets {
		if err := validTrigger(d.Trigger); err != nil {
			return nil, &ValidationError{
				Path:    fmt.Sprintf("%s: snippet %d", path, i+1),
				Message: err.Error(),
				Value:   d.Trigger,
			}
		}
		defs = append(defs, snippet.Snippet{
			Trigger:     d.Trigger,
			Template:    d.Body,
			Description: d.Description,
		})
	}
	return defs, nil
}

// validTrigger rejects triggers the manager can never match: the trigger
// word ends at the first whitespace left of the cursor.
func validTrigger(trigger string) error {
	if trigger == "" {
		return snippet.ErrEmptyTrigger
	}
	if strings.IndexFunc(trigger, unicode.IsSpace) >= 0 {
		return errors.New("trigger contains whitespace")
	}
	return nil
}
