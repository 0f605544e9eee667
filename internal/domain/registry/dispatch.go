package registry

import (
	"context"
	"fmt"

	"github.com/XiaoYing/filemanager/internal/shared/types"
)

// Dispatch routes a named command to the operation it stands for. Every
// command acts on the active tab's current state; rename additionally
// reads the new name from args.
func (m *Manager) Dispatch(ctx context.Context, cmd types.Command, args map[string]string) error {
	if m.metrics != nil {
		m.metrics.CommandsTotal.WithLabelValues(string(cmd)).Inc()
	}

	switch cmd {
	case types.CmdNavigateBack:
		m.NavigateBack(ctx)
		return nil
	case types.CmdRefresh:
		if t := m.ActiveTab(); t != nil {
			t.Refresh(ctx)
		}
		return nil
	case types.CmdCut:
		return m.Cut(ctx)
	case types.CmdCopy:
		return m.Copy(ctx)
	case types.CmdPaste:
		return m.Paste(ctx)
	case types.CmdRename:
		return m.Rename(ctx, args["newName"])
	case types.CmdDelete:
		return m.Delete(ctx)
	case types.CmdSelectAll:
		if t := m.ActiveTab(); t != nil {
			t.SelectAll()
		}
		return nil
	case types.CmdClearFilter:
		if t := m.ActiveTab(); t != nil {
			t.SetFilter("")
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
