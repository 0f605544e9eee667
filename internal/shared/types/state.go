package types

// TabState is the persisted snapshot of one tab
type TabState struct {
	ID           string   `json:"id"`
	History      []string `json:"history"`
	HistoryIndex int      `json:"historyIndex"`
	FilterTerm   string   `json:"filterTerm"`
	Title        string   `json:"title"`
}

// RegistryState is the persisted snapshot of the tab registry
type RegistryState struct {
	Tabs         []TabState `json:"tabs"`
	ActiveTabID  string     `json:"activeTabId"`
	VisitHistory []string   `json:"visitHistory"`
}

// Result is the standard file-operation result returned by the external
// file-operation collaborator. A non-success result carries a user-facing
// error and must not mutate local state.
type Result struct {
	Success bool    `json:"success"`
	Error   *string `json:"error,omitempty"`
	UndoID  *string `json:"undoId,omitempty"`
}

// Failure builds a non-success result with a message
func Failure(message string) *Result {
	return &Result{Success: false, Error: &message}
}

// Ok builds a success result
func Ok() *Result {
	return &Result{Success: true}
}
