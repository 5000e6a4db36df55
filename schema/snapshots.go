package schema

// TabSnapshot is a read-only view of tab state for transports.
type TabSnapshot struct {
	ID        TabID
	Title     string
	Icon      string
	IconURL   string
	Badge     string
	Src       string
	Native    bool
	Closable  bool
	Active    bool
	Visible   bool
	Flashing  bool
	Loading   bool
	Busy      bool
	Failed    bool
	Position  int
	Lifecycle Lifecycle
	State     DegradationState
}

// GroupSnapshot is a read-only view of a group in stacking order.
type GroupSnapshot struct {
	ID        GroupID
	Tabs      []TabSnapshot
	ActiveTab TabID
}
