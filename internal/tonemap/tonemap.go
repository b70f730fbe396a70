// Package tonemap loads the per-animal assignment of tones to response spouts.
package tonemap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrUnknownAnimal is returned when the mapping table has no row for an animal
var ErrUnknownAnimal = errors.New("no tone-spout mapping for animal")

const animalColumn = "Animal"

// Pair assigns one tone to one spout
type Pair struct {
	Tone  string `json:"tone"`
	Spout string `json:"spout"`
}

// Mapping is the tone-spout assignment for one animal
type Mapping struct {
	Animal int    `json:"animal"`
	Pairs  []Pair `json:"pairs"`
}

// SpoutFor returns the spout assigned to a tone
func (m *Mapping) SpoutFor(tone string) (string, bool) {
	for _, p := range m.Pairs {
		if p.Tone == tone {
			return p.Spout, true
		}
	}
	return "", false
}

// Table holds the mapping rows keyed by animal number
type Table struct {
	Tones []string
	rows  map[int]Mapping
}

// LoadFile reads a mapping table from disk
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tone map: %w", err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load parses a mapping CSV with an Animal column followed by one column per tone
func Load(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read tone map header: %w", err)
	}

	animalIdx := -1
	var tones []string
	var toneIdx []int
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == animalColumn {
			animalIdx = i
			continue
		}
		if h != "" {
			tones = append(tones, h)
			toneIdx = append(toneIdx, i)
		}
	}
	if animalIdx < 0 {
		return nil, fmt.Errorf("tone map has no %s column", animalColumn)
	}

	t := &Table{Tones: tones, rows: make(map[int]Mapping)}
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tone map: %w", err)
		}
		if animalIdx >= len(fields) || strings.TrimSpace(fields[animalIdx]) == "" {
			continue
		}
		animal, err := strconv.Atoi(strings.TrimSpace(fields[animalIdx]))
		if err != nil {
			return nil, fmt.Errorf("invalid animal %q: %w", fields[animalIdx], err)
		}
		// first row per animal wins
		if _, exists := t.rows[animal]; exists {
			continue
		}
		m := Mapping{Animal: animal}
		for j, idx := range toneIdx {
			spout := ""
			if idx < len(fields) {
				spout = strings.TrimSpace(fields[idx])
			}
			if spout != "" {
				m.Pairs = append(m.Pairs, Pair{Tone: tones[j], Spout: spout})
			}
		}
		t.rows[animal] = m
	}
	return t, nil
}

// Lookup returns the mapping for an animal identifier such as "925145"
func (t *Table) Lookup(animal string) (*Mapping, error) {
	id, err := strconv.Atoi(strings.TrimSpace(animal))
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownAnimal, animal)
	}
	m, ok := t.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownAnimal, id)
	}
	return &m, nil
}

// Len returns the number of animals in the table
func (t *Table) Len() int {
	return len(t.rows)
}

// Subtitle renders the report subtitle for a mapping.
// A nil mapping renders the not-found marker.
func Subtitle(m *Mapping) string {
	if m == nil || len(m.Pairs) == 0 {
		return "Tone-spout mapping: (not found for this animal)"
	}
	parts := make([]string, len(m.Pairs))
	for i, p := range m.Pairs {
		parts[i] = fmt.Sprintf("%s → %s spout", p.Tone, p.Spout)
	}
	return "Tone-spout mapping: " + strings.Join(parts, ", ")
}

// SubtitleFor looks up an animal and renders its subtitle.
// The error is ErrUnknownAnimal when the table or the row is missing; the
// returned subtitle is always usable.
func SubtitleFor(t *Table, animal string) (string, error) {
	if t == nil {
		return Subtitle(nil), ErrUnknownAnimal
	}
	m, err := t.Lookup(animal)
	if err != nil {
		return Subtitle(nil), err
	}
	return Subtitle(m), nil
}
