// Package taxonomy holds the section vocabularies content items are filed
// under. Sections are labels only; nothing in storage ties an item to them.
package taxonomy

import (
	"fmt"
	"strings"
)

const (
	NameFlat        = "flat"
	NameCategorized = "categorized"
)

type Category struct {
	Name     string
	Sections []string
}

type Taxonomy struct {
	name       string
	categories []Category
	sections   []string
	category   map[string]string
}

func New(name string, categories []Category) (*Taxonomy, error) {
	t := &Taxonomy{
		name:     name,
		category: make(map[string]string),
	}
	for _, c := range categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("taxonomy %s: empty category name", name)
		}
		if len(c.Sections) == 0 {
			return nil, fmt.Errorf("taxonomy %s: category %q has no sections", name, c.Name)
		}
		for _, s := range c.Sections {
			if _, dup := t.category[s]; dup {
				return nil, fmt.Errorf("taxonomy %s: duplicate section %q", name, s)
			}
			t.category[s] = c.Name
			t.sections = append(t.sections, s)
		}
		t.categories = append(t.categories, Category{Name: c.Name, Sections: append([]string(nil), c.Sections...)})
	}
	if len(t.sections) == 0 {
		return nil, fmt.Errorf("taxonomy %s: no sections", name)
	}
	return t, nil
}

func mustNew(name string, categories []Category) *Taxonomy {
	t, err := New(name, categories)
	if err != nil {
		panic(err)
	}
	return t
}

var (
	flat        = mustNew(NameFlat, flatCategories)
	categorized = mustNew(NameCategorized, categorizedCategories)
)

func Flat() *Taxonomy {
	return flat
}

func Categorized() *Taxonomy {
	return categorized
}

func ByName(name string) (*Taxonomy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameCategorized:
		return categorized, nil
	case NameFlat:
		return flat, nil
	default:
		return nil, fmt.Errorf("unknown taxonomy %q", name)
	}
}

func (t *Taxonomy) Name() string {
	return t.name
}

func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	copy(out, t.categories)
	return out
}

func (t *Taxonomy) Sections() []string {
	return append([]string(nil), t.sections...)
}

func (t *Taxonomy) Len() int {
	return len(t.sections)
}

func (t *Taxonomy) First() string {
	return t.sections[0]
}

func (t *Taxonomy) Contains(section string) bool {
	_, ok := t.category[section]
	return ok
}

func (t *Taxonomy) CategoryOf(section string) (string, bool) {
	c, ok := t.category[section]
	return c, ok
}

// Resolve returns section when it belongs to the taxonomy and the first
// section otherwise.
func (t *Taxonomy) Resolve(section string) string {
	section = strings.TrimSpace(section)
	if t.Contains(section) {
		return section
	}
	return t.First()
}
