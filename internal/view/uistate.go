package view

// UIState is the persisted dashboard UI state.
type UIState struct {
	Theme     string   `json:"theme"`
	Collapsed []string `json:"collapsed_nodes"`
	Order     []string `json:"dashboard_order"`
	Hidden    []string `json:"hidden_nodes"`
}
