package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/XiaoYing/filemanager/internal/shared/types"
)

// Keymap maps key chords (e.g. "ctrl+x", "f5") to engine commands.
type Keymap map[string]types.Command

// DefaultKeymap mirrors the stock bindings of the web UI.
func DefaultKeymap() Keymap {
	return Keymap{
		"f5":        types.CmdRefresh,
		"backspace": types.CmdNavigateBack,
		"ctrl+x":    types.CmdCut,
		"ctrl+c":    types.CmdCopy,
		"ctrl+v":    types.CmdPaste,
		"ctrl+a":    types.CmdSelectAll,
		"f2":        types.CmdRename,
		"delete":    types.CmdDelete,
		"escape":    types.CmdClearFilter,
	}
}

// keymapFile is the on-disk TOML shape.
type keymapFile struct {
	Bindings map[string]string `toml:"bindings"`
}

// LoadKeymap reads a TOML keymap file and overlays it on the defaults.
// Unknown command names are rejected so a typo does not silently unbind
// a key.
func LoadKeymap(path string) (Keymap, error) {
	keymap := DefaultKeymap()
	if path == "" {
		return keymap, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keymap: %w", err)
	}

	var file keymapFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse keymap: %w", err)
	}

	for chord, name := range file.Bindings {
		if !types.IsKnownCommand(name) {
			return nil, fmt.Errorf("keymap binds %q to unknown command %q", chord, name)
		}
		keymap[chord] = types.Command(name)
	}

	return keymap, nil
}
