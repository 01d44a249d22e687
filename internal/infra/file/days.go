// Package file reads the day catalogue from a YAML document.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"advent-calendar-service/internal/domain"
	"gopkg.in/yaml.v3"
)

type catalogue struct {
	Days []domain.Day `yaml:"days"`
}

// LoadDays reads and validates the catalogue at path.
func LoadDays(path string) ([]domain.Day, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	days, err := ParseDays(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return days, nil
}

// ParseDays decodes a catalogue, rejecting unknown keys, invalid days and
// duplicate ids. Days come back ordered by id.
func ParseDays(r io.Reader) ([]domain.Day, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cat catalogue
	if err := dec.Decode(&cat); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode days: %w", err)
	}

	seen := make(map[int]struct{}, len(cat.Days))
	for _, day := range cat.Days {
		if err := day.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[day.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate day %d", domain.ErrInvalidDay, day.ID)
		}
		seen[day.ID] = struct{}{}
	}
	sort.Slice(cat.Days, func(i, j int) bool { return cat.Days[i].ID < cat.Days[j].ID })
	return cat.Days, nil
}
