// Package topology loads the route network the simulator runs on.
package topology

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ukydev/metro-telemetry/internal/models"
	"github.com/ukydev/metro-telemetry/internal/sim"
)

//go:embed panama.yaml
var panamaYAML []byte

var (
	ErrNoLines          = errors.New("topology has no lines")
	ErrDuplicateLine    = errors.New("duplicate line id")
	ErrDuplicateStation = errors.New("duplicate station id")
	ErrIncompleteTunnel = errors.New("tunnel needs two boundary stations")
)

// Network is a set of lines plus the physics the simulator applies to all of them.
type Network struct {
	Physics sim.Params    `yaml:"physics"`
	Lines   []models.Line `yaml:"lines"`
}

// Default returns the built-in Panama Metro network.
func Default() Network {
	n, err := Parse(panamaYAML)
	if err != nil {
		panic(fmt.Sprintf("topology: built-in network is invalid: %v", err))
	}
	return n
}

// LoadFile reads and validates a network from a YAML file.
func LoadFile(path string) (Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Network{}, fmt.Errorf("read topology %s: %w", path, err)
	}
	n, err := Parse(data)
	if err != nil {
		return Network{}, fmt.Errorf("topology %s: %w", path, err)
	}
	return n, nil
}

// Parse decodes a YAML network. Physics fields that are absent keep their defaults.
func Parse(data []byte) (Network, error) {
	n := Network{Physics: sim.DefaultParams()}
	if err := yaml.Unmarshal(data, &n); err != nil {
		return Network{}, fmt.Errorf("decode: %w", err)
	}
	if err := n.Validate(); err != nil {
		return Network{}, err
	}
	return n, nil
}

// Validate checks field constraints plus the cross-record rules the tags cannot express.
func (n Network) Validate() error {
	if len(n.Lines) == 0 {
		return ErrNoLines
	}
	v := validator.New()
	if err := v.Struct(n.Physics); err != nil {
		return fmt.Errorf("physics: %w", err)
	}

	lines := make(map[string]bool, len(n.Lines))
	for i := range n.Lines {
		l := &n.Lines[i]
		if err := v.Struct(l); err != nil {
			return fmt.Errorf("line %q: %w", l.ID, err)
		}
		if lines[l.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateLine, l.ID)
		}
		lines[l.ID] = true

		stations := make(map[string]bool, len(l.Stations))
		boundaries := 0
		for _, s := range l.Stations {
			if stations[s.ID] {
				return fmt.Errorf("%w: %s on line %s", ErrDuplicateStation, s.ID, l.ID)
			}
			stations[s.ID] = true
			if s.TunnelBoundary {
				boundaries++
			}
		}
		if boundaries == 1 {
			return fmt.Errorf("%w: line %s", ErrIncompleteTunnel, l.ID)
		}
	}
	return nil
}

// Line looks up a line by id.
func (n Network) Line(id string) (models.Line, bool) {
	for _, l := range n.Lines {
		if l.ID == id {
			return l, true
		}
	}
	return models.Line{}, false
}

// Stations lists every station of every line, tagged with its line.
func (n Network) Stations() []models.LineStation {
	var out []models.LineStation
	for _, l := range n.Lines {
		for _, s := range l.Stations {
			out = append(out, models.LineStation{Station: s, Line: l.ID})
		}
	}
	return out
}
