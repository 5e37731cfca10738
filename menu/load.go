package menu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Format names a menu source layout.
type Format string

const (
	// FormatCatalog is {"categories": {"<name>": [{"name", "orderable_as_base", "modifiers": [{"name", "id"}]}]}}.
	FormatCatalog Format = "catalog"
	// FormatVariations is {"<category>": {"<item>": {"available_as_base", "variations": ["..."]}}}.
	FormatVariations Format = "variations"
)

// ParseFormat maps a configuration value onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCatalog, "":
		return FormatCatalog, nil
	case FormatVariations:
		return FormatVariations, nil
	default:
		return "", fmt.Errorf("unknown menu format %q", s)
	}
}

// Source supplies the raw bytes of a menu document.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// LoadError reports a menu document that cannot be parsed or does not
// match the expected structure. Path locates the offending element.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid menu: %v", e.Err)
	}
	return fmt.Sprintf("invalid menu at %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads a menu document from src and builds a Catalog from it.
func Load(ctx context.Context, src Source, format Format, opts ...Option) (*Catalog, error) {
	data, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu source: %w", err)
	}
	return Parse(data, format, opts...)
}

// Parse builds a Catalog from a menu document. Category and item order
// follow the document. Any structural problem fails the whole load.
func Parse(data []byte, format Format, opts ...Option) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var (
		categories []Category
		err        error
	)
	switch format {
	case FormatCatalog, "":
		categories, err = parseCatalog(dec)
	case FormatVariations:
		categories, err = parseVariations(dec)
	default:
		return nil, &LoadError{Err: fmt.Errorf("unknown menu format %q", format)}
	}
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &LoadError{Err: errors.New("unexpected data after menu document")}
	}

	return New(categories, opts...)
}

type rawModifier struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type rawItem struct {
	Name            string        `json:"name"`
	OrderableAsBase *bool         `json:"orderable_as_base"`
	Modifiers       []rawModifier `json:"modifiers"`
}

type rawVariations struct {
	AvailableAsBase *bool    `json:"available_as_base"`
	Variations      []string `json:"variations"`
}

func parseCatalog(dec *json.Decoder) ([]Category, error) {
	var (
		categories []Category
		found      bool
	)
	err := walkObject(dec, "", func(key string) error {
		if key != "categories" {
			return &LoadError{Path: key, Err: errors.New("unknown field")}
		}
		found = true
		return walkObject(dec, "categories", func(name string) error {
			path := fmt.Sprintf("categories[%q]", name)

			var raw []rawItem
			if err := dec.Decode(&raw); err != nil {
				return &LoadError{Path: path, Err: err}
			}

			cat := Category{Name: name, Items: make([]Item, 0, len(raw))}
			for i, r := range raw {
				itemPath := fmt.Sprintf("%s[%d]", path, i)
				if r.OrderableAsBase == nil {
					return &LoadError{Path: itemPath, Err: errors.New("orderable_as_base is required")}
				}
				it := Item{
					Category:        name,
					Name:            strings.TrimSpace(r.Name),
					OrderableAsBase: *r.OrderableAsBase,
					Modifiers:       make([]Modifier, 0, len(r.Modifiers)),
				}
				for _, m := range r.Modifiers {
					id := strings.TrimSpace(m.ID)
					if id == "" {
						id = uuid.NewString()
					}
					it.Modifiers = append(it.Modifiers, Modifier{Name: strings.TrimSpace(m.Name), ID: id})
				}
				cat.Items = append(cat.Items, it)
			}
			categories = append(categories, cat)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &LoadError{Path: "categories", Err: errors.New("missing")}
	}
	return categories, nil
}

func parseVariations(dec *json.Decoder) ([]Category, error) {
	var categories []Category
	err := walkObject(dec, "", func(name string) error {
		path := fmt.Sprintf("[%q]", name)
		cat := Category{Name: name}
		err := walkObject(dec, path, func(itemName string) error {
			itemPath := fmt.Sprintf("%s[%q]", path, itemName)

			var raw rawVariations
			if err := dec.Decode(&raw); err != nil {
				return &LoadError{Path: itemPath, Err: err}
			}
			if raw.AvailableAsBase == nil {
				return &LoadError{Path: itemPath, Err: errors.New("available_as_base is required")}
			}

			it := Item{
				Category:        name,
				Name:            strings.TrimSpace(itemName),
				OrderableAsBase: *raw.AvailableAsBase,
				Modifiers:       make([]Modifier, 0, len(raw.Variations)),
			}
			for _, v := range raw.Variations {
				it.Modifiers = append(it.Modifiers, Modifier{Name: strings.TrimSpace(v), ID: uuid.NewString()})
			}
			cat.Items = append(cat.Items, it)
			return nil
		})
		if err != nil {
			return err
		}
		categories = append(categories, cat)
		return nil
	})
	return categories, err
}

// walkObject consumes one JSON object from dec, calling fn for each key in
// document order. fn must consume the key's value.
func walkObject(dec *json.Decoder, path string, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return &LoadError{Path: path, Err: fmt.Errorf("expected object, got %v", tok)}
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return &LoadError{Path: path, Err: err}
		}
		key, ok := tok.(string)
		if !ok {
			return &LoadError{Path: path, Err: fmt.Errorf("expected key, got %v", tok)}
		}
		if err := fn(key); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return &LoadError{Path: path, Err: err}
	}
	return nil
}
