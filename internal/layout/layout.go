// Package layout loads starting positions from YAML or JSON files and
// resolves preset names.
package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/bgrules/pkg/engine"
)

// File is the on-disk shape of a layout. A file gives either a list of
// placements or a gnubg position ID.
type File struct {
	Name        string        `yaml:"name,omitempty" json:"name,omitempty"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	First       engine.Color  `yaml:"first,omitempty" json:"first,omitempty"`
	Doubles     string        `yaml:"doubles,omitempty" json:"doubles,omitempty"`
	Position    string        `yaml:"position,omitempty" json:"position,omitempty"`
	FillHome    bool          `yaml:"fill_home,omitempty" json:"fill_home,omitempty"`
	Stones      engine.Layout `yaml:"stones,omitempty" json:"stones,omitempty"`
}

// Parse decodes a YAML document. Unknown keys are an error.
func Parse(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("parse layout: %w", err)
	}
	return f, nil
}

// Load reads a layout file. Files ending in .json are decoded as JSON,
// anything else as YAML.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read layout: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return File{}, fmt.Errorf("parse layout %s: %w", path, err)
		}
		return f, nil
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Marshal encodes f as YAML.
func Marshal(f File) ([]byte, error) {
	return yaml.Marshal(f)
}

// FromBoard captures a board as a layout file.
func FromBoard(name string, b *engine.Board) File {
	return File{Name: name, Stones: b.Layout()}
}

// Layout returns the placements described by f, checked by building a
// board from them.
func (f File) Layout() (engine.Layout, error) {
	var l engine.Layout
	switch {
	case f.Position != "" && len(f.Stones) > 0:
		return nil, fmt.Errorf("layout %q: give either position or stones, not both", f.Name)
	case f.Position != "":
		onRoll := f.First
		if onRoll == engine.NoColor {
			onRoll = engine.White
		}
		var err error
		l, err = engine.LayoutFromPositionID(f.Position, onRoll)
		if err != nil {
			return nil, fmt.Errorf("layout %q: %w", f.Name, err)
		}
	default:
		l = slices.Clone(f.Stones)
		if f.FillHome {
			l = fillHome(l)
		}
	}
	if _, err := engine.NewBoardFromLayout(l); err != nil {
		return nil, fmt.Errorf("layout %q: %w", f.Name, err)
	}
	return l, nil
}

// Rules returns the rule variant named by the file.
func (f File) Rules() (engine.Rules, error) {
	d, err := engine.ParseDoublesRule(f.Doubles)
	if err != nil {
		return engine.Rules{}, err
	}
	return engine.Rules{Doubles: d}, nil
}

// fillHome bears off whatever stones the placements leave out.
func fillHome(l engine.Layout) engine.Layout {
	var count [3]int
	for _, p := range l {
		if p.Color.Valid() {
			count[p.Color] += p.Count
		}
	}
	for _, c := range engine.Colors {
		if n := engine.NumStones - count[c]; n > 0 {
			l = append(l, engine.Placement{At: engine.HomeOf(c), Count: n, Color: c})
		}
	}
	return l
}

// Names lists the preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(engine.Presets))
	for name := range engine.Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns a preset by name, or loads the file at ref when no
// preset matches. An empty ref is the standard layout.
func Resolve(ref string) (File, error) {
	if ref == "" {
		ref = "standard"
	}
	if preset, ok := engine.Presets[ref]; ok {
		return File{Name: ref, Stones: preset()}, nil
	}
	f, err := Load(ref)
	if err != nil {
		return File{}, fmt.Errorf("layout %q is neither a preset (%s) nor a readable file: %w", ref, strings.Join(Names(), ", "), err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
	}
	return f, nil
}
