// Package content serves the static educational pages from embedded YAML.
package content

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var files embed.FS

type Centre struct {
	Nom        string `yaml:"nom"`
	Quartier   string `yaml:"quartier"`
	Tel        string `yaml:"tel"`
	Specialite string `yaml:"specialite"`
}

type City struct {
	Name    string   `yaml:"name"`
	Centres []Centre `yaml:"centres"`
}

type Centres struct {
	Cities   []City `yaml:"cities"`
	Services struct {
		Tests         []string `yaml:"tests"`
		Consultations []string `yaml:"consultations"`
	} `yaml:"services"`
}

// CityNames lists the cities with at least one centre, in file order.
func (c *Centres) CityNames() []string {
	out := make([]string, 0, len(c.Cities))
	for _, city := range c.Cities {
		out = append(out, city.Name)
	}
	return out
}

// City returns the named city, falling back to the first one when the
// name is unknown or empty.
func (c *Centres) City(name string) City {
	for _, city := range c.Cities {
		if city.Name == name {
			return city
		}
	}
	if len(c.Cities) == 0 {
		return City{}
	}
	return c.Cities[0]
}

type FoodGroup struct {
	Category string   `yaml:"category"`
	Advice   string   `yaml:"advice"`
	Foods    []string `yaml:"foods"`
}

type Recipe struct {
	Name        string   `yaml:"name"`
	Ingredients []string `yaml:"ingredients"`
	Steps       []string `yaml:"steps"`
	Advice      string   `yaml:"advice"`
	Portion     string   `yaml:"portion"`
}

type MealOption struct {
	Label string   `yaml:"label"`
	Items []string `yaml:"items"`
}

type Meal struct {
	Meal    string       `yaml:"meal"`
	Options []MealOption `yaml:"options"`
}

type Nutrition struct {
	Recommended []FoodGroup `yaml:"recommended"`
	Limit       []FoodGroup `yaml:"limit"`
	Recipes     []Recipe    `yaml:"recipes"`
	Menu        []Meal      `yaml:"menu"`
}

type Section struct {
	Heading string   `yaml:"heading"`
	Items   []string `yaml:"items"`
}

type Module struct {
	Title    string    `yaml:"title"`
	Intro    string    `yaml:"intro"`
	Sections []Section `yaml:"sections"`
	Closing  string    `yaml:"closing"`
}

type Formation struct {
	Modules []Module `yaml:"modules"`
}

type Contact struct {
	City string `yaml:"city"`
	Tel  string `yaml:"tel"`
}

// Emergency is the block shown in every page's sidebar.
type Emergency struct {
	Signs    []string  `yaml:"signs"`
	Contacts []Contact `yaml:"contacts"`
}

// Library groups every content document.
type Library struct {
	Centres   Centres
	Nutrition Nutrition
	Formation Formation
	Emergency Emergency
}

// Load parses the embedded documents.
func Load() (*Library, error) {
	lib := &Library{}
	docs := []struct {
		name string
		into any
	}{
		{"centres.yaml", &lib.Centres},
		{"nutrition.yaml", &lib.Nutrition},
		{"formation.yaml", &lib.Formation},
		{"urgences.yaml", &lib.Emergency},
	}
	for _, d := range docs {
		raw, err := files.ReadFile("data/" + d.name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", d.name, err)
		}
		if err := yaml.Unmarshal(raw, d.into); err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.name, err)
		}
	}
	return lib, nil
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
	defaultErr  error
)

// Default returns the embedded library, parsed once.
func Default() (*Library, error) {
	defaultOnce.Do(func() {
		defaultLib, defaultErr = Load()
	})
	return defaultLib, defaultErr
}
