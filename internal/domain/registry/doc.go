// Package registry coordinates the set of open tabs: the active tab
// pointer, most-recent-visit order, the single shared clipboard with its
// per-path cut/copy marks, and the file operations that act on the active
// tab's selection. Clipboard changes fan out synchronously to every tab
// except the one that issued the command.
package registry
