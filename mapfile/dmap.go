// Package mapfile implements the three map-file parsers spec.md §6 treats
// as external collaborators: the dmap alias table, the numeric-address
// map, and the logical-name-map XML file. None of them import backend, so
// a backend can be handed an already-parsed catalogue without the two
// packages depending on each other.
package mapfile

import (
	"bufio"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rob-gra/go-deviceaccess/deverr"
)

// DMapFileEnvironmentVariable names the environment variable that points
// at a dmap file, matching the original library's DMAP_FILE_ENVIRONMENT_VARIABLE.
const DMapFileEnvironmentVariable = "DMAP_FILE"

// DMapFileDefault is used when DMapFileEnvironmentVariable is unset.
const DMapFileDefault = "/etc/mtca4u/devices.dmap"

// Alias is one row of a dmap alias table: a short name bound to an sdm://
// URI, with an optional associated map file (used by numeric-addressed
// backends to locate their register map without repeating it in the URI).
type Alias struct {
	Name    string
	URI     string
	MapFile string
}

// DMapFileToUse returns the DMAP_FILE environment variable if set, else
// DMapFileDefault.
func DMapFileToUse() string {
	if v := os.Getenv(DMapFileEnvironmentVariable); v != "" {
		return v
	}
	return DMapFileDefault
}

// LoadDMap parses a dmap alias table from path. Each non-blank,
// non-comment ('#') line is whitespace-separated: `name uri [mapFile]`.
func LoadDMap(path string) ([]Alias, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "opening dmap file %q", path)
	}
	defer f.Close()
	return parseDMap(f, path)
}

func parseDMap(r io.Reader, path string) ([]Alias, error) {
	var aliases []Alias
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, deverr.New(deverr.CannotOpenMapFile, "%s:%d: expected at least 2 fields, got %d", path, lineNo, len(fields))
		}
		a := Alias{Name: fields[0], URI: fields[1]}
		if len(fields) > 2 {
			a.MapFile = fields[2]
		}
		aliases = append(aliases, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "reading dmap file %q", path)
	}
	return aliases, nil
}

// yamlAliasTable is the on-disk shape of the YAML alias table convenience
// format: a top-level `devices:` list of {name, uri, mapFile}.
type yamlAliasTable struct {
	Devices []struct {
		Name    string `yaml:"name"`
		URI     string `yaml:"uri"`
		MapFile string `yaml:"mapFile"`
	} `yaml:"devices"`
}

// LoadYAMLDMap parses the YAML-flavoured alias table alternative to the
// classic dmap line format.
func LoadYAMLDMap(path string) ([]Alias, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "opening YAML dmap file %q", path)
	}
	var table yamlAliasTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "parsing YAML dmap file %q", path)
	}
	aliases := make([]Alias, 0, len(table.Devices))
	for _, d := range table.Devices {
		if d.Name == "" || d.URI == "" {
			return nil, deverr.New(deverr.CannotOpenMapFile, "%s: device entry missing name or uri", path)
		}
		aliases = append(aliases, Alias{Name: d.Name, URI: d.URI, MapFile: d.MapFile})
	}
	return aliases, nil
}

// Resolve looks up name among aliases, returning a CannotOpenMapFile error
// if absent.
func Resolve(aliases []Alias, name string) (Alias, error) {
	for _, a := range aliases {
		if a.Name == name {
			return a, nil
		}
	}
	return Alias{}, deverr.New(deverr.CannotOpenMapFile, "no dmap entry named %q", name)
}
