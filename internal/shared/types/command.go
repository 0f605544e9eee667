package types

// Command names the parameterless actions the engine reacts to. Each acts
// on the active tab's current state.
type Command string

const (
	CmdNavigateBack Command = "navigate-back"
	CmdRefresh      Command = "refresh"
	CmdCut          Command = "cut"
	CmdCopy         Command = "copy"
	CmdPaste        Command = "paste"
	CmdRename       Command = "rename"
	CmdDelete       Command = "delete"
	CmdSelectAll    Command = "select-all"
	CmdClearFilter  Command = "clear-filter"
)

// KnownCommands lists every dispatchable command.
var KnownCommands = []Command{
	CmdNavigateBack,
	CmdRefresh,
	CmdCut,
	CmdCopy,
	CmdPaste,
	CmdRename,
	CmdDelete,
	CmdSelectAll,
	CmdClearFilter,
}

// IsKnownCommand reports whether name is a dispatchable command.
func IsKnownCommand(name string) bool {
	for _, c := range KnownCommands {
		if Command(name) == c {
			return true
		}
	}
	return false
}
