package sheet

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tab identifies one worksheet within the spreadsheet source. GID is
// preferred; SheetName is the fallback identifier.
type Tab struct {
	Name      string `yaml:"name"`
	GID       string `yaml:"gid,omitempty"`
	SheetName string `yaml:"sheetName,omitempty"`
}

// HeaderKeywords lists, per logical field, the substrings that identify its
// column in the header row. Matching is case-insensitive; first column whose
// header contains any keyword wins.
type HeaderKeywords struct {
	ID        []string `yaml:"id"`
	Created   []string `yaml:"created"`
	Name      []string `yaml:"name"`
	FirstName []string `yaml:"firstName"`
	LastName  []string `yaml:"lastName"`
	Email     []string `yaml:"email"`
	Phone     []string `yaml:"phone"`
	Platform  []string `yaml:"platform"`
	Form      []string `yaml:"form"`
	Campaign  []string `yaml:"campaign"`
	Ad        []string `yaml:"ad"`
	Status    []string `yaml:"status"`
}

// Mapping is the importer's source configuration: which tabs to fetch and
// how to recognize columns.
type Mapping struct {
	Tabs    []Tab          `yaml:"tabs"`
	Headers HeaderKeywords `yaml:"headers"`
}

// DefaultMapping matches the standard Meta lead export layout.
func DefaultMapping() Mapping {
	return Mapping{
		Headers: HeaderKeywords{
			ID:        []string{"id"},
			Created:   []string{"created", "time"},
			Name:      []string{"full name", "full_name", "name"},
			FirstName: []string{"first"},
			LastName:  []string{"last", "surname"},
			Email:     []string{"email", "mail"},
			Phone:     []string{"phone", "mobile", "contact"},
			Platform:  []string{"platform"},
			Form:      []string{"form"},
			Campaign:  []string{"campaign"},
			Ad:        []string{"ad name", "ad_name"},
			Status:    []string{"status", "stage"},
		},
	}
}

// LoadMapping reads the YAML mapping file. An empty path yields the default
// mapping with no tabs (sync becomes a no-op). Keyword lists absent from the
// file keep their defaults.
func LoadMapping(path string) (Mapping, error) {
	mapping := DefaultMapping()
	if path == "" {
		return mapping, nil
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return mapping, nil
	}
	if err != nil {
		return Mapping{}, fmt.Errorf("read sheet mapping %s: %w", path, err)
	}

	var loaded Mapping
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return Mapping{}, fmt.Errorf("parse sheet mapping %s: %w", path, err)
	}

	mapping.Tabs = loaded.Tabs
	mapping.Headers = mergeKeywords(mapping.Headers, loaded.Headers)
	return mapping, nil
}

func mergeKeywords(base, override HeaderKeywords) HeaderKeywords {
	pick := func(def, over []string) []string {
		if len(over) > 0 {
			return over
		}
		return def
	}
	return HeaderKeywords{
		ID:        pick(base.ID, override.ID),
		Created:   pick(base.Created, override.Created),
		Name:      pick(base.Name, override.Name),
		FirstName: pick(base.FirstName, override.FirstName),
		LastName:  pick(base.LastName, override.LastName),
		Email:     pick(base.Email, override.Email),
		Phone:     pick(base.Phone, override.Phone),
		Platform:  pick(base.Platform, override.Platform),
		Form:      pick(base.Form, override.Form),
		Campaign:  pick(base.Campaign, override.Campaign),
		Ad:        pick(base.Ad, override.Ad),
		Status:    pick(base.Status, override.Status),
	}
}
