// Package hass renders Broadlink commands as Home Assistant scripts.
package hass

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrBadExtension is returned when the output file is not a YAML file.
	ErrBadExtension = errors.New("hass: file must be a .yaml file")
	// ErrDuplicateScript is returned when two buttons map to the same
	// script name.
	ErrDuplicateScript = errors.New("hass: duplicate script name")
)

type Target struct {
	EntityID string `yaml:"entity_id"`
}

type CommandData struct {
	Command string `yaml:"command"`
}

type Step struct {
	Service string      `yaml:"service"`
	Target  Target      `yaml:"target"`
	Data    CommandData `yaml:"data"`
}

// Script is one Home Assistant script sending a single IR command.
type Script struct {
	Alias    string `yaml:"alias"`
	Sequence []Step `yaml:"sequence"`
}

// ScriptName lower-cases a button label and replaces dashes, which Home
// Assistant does not allow in script ids.
func ScriptName(button string) string {
	return strings.ReplaceAll(strings.ToLower(button), "-", "_")
}

// EntityID adds the "remote." domain to name unless it already has it.
func EntityID(name string) string {
	if strings.SplitN(name, ".", 2)[0] == "remote" {
		return name
	}
	return "remote." + name
}

// NewScript returns the script sending the base64 packet code through
// entity.
func NewScript(button, code, entity string) Script {
	return Script{
		Alias: button,
		Sequence: []Step{{
			Service: "remote.send_command",
			Target:  Target{EntityID: EntityID(entity)},
			Data:    CommandData{Command: "b64:" + code},
		}},
	}
}

// BuildScripts returns one script per button of mapping, keyed by script
// name.
func BuildScripts(mapping map[string]string, entity string) (map[string]Script, error) {
	scripts := make(map[string]Script, len(mapping))
	for button, code := range mapping {
		name := ScriptName(button)
		if prev, ok := scripts[name]; ok {
			return nil, fmt.Errorf("%w: %q and %q are both %q", ErrDuplicateScript, prev.Alias, button, name)
		}
		scripts[name] = NewScript(button, code, entity)
	}
	return scripts, nil
}

// Write encodes the scripts for mapping as YAML, sorted by script name.
func Write(w io.Writer, mapping map[string]string, entity string) error {
	scripts, err := BuildScripts(mapping, entity)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(scripts); err != nil {
		return err
	}
	return enc.Close()
}

// WriteFile writes the scripts for mapping to path, which must end in
// .yaml or .yml.
func WriteFile(path string, mapping map[string]string, entity string) error {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("%w: %s", ErrBadExtension, path)
	}
	var buf bytes.Buffer
	if err := Write(&buf, mapping, entity); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
