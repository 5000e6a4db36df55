package schema

// EventName identifies a group or tab event.
type EventName string

// Group events.
const (
	EventTabAdded   EventName = "tab-added"
	EventTabActive  EventName = "tab-active"
	EventTabRemoved EventName = "tab-removed"
)

// Tab events.
const (
	EventActive       EventName = "active"
	EventInactive     EventName = "inactive"
	EventTitleChanged EventName = "title-changed"
	EventIconChanged  EventName = "icon-changed"
	EventBadgeChanged EventName = "badge-changed"
	EventVisible      EventName = "visible"
	EventHidden       EventName = "hidden"
	EventFlash        EventName = "flash"
	EventUnflash      EventName = "unflash"
	EventClosing      EventName = "closing"
	EventClose        EventName = "close"
	EventTierChanged  EventName = "tier-changed"

	EventWebviewReady        EventName = "webview-ready"
	EventWebviewLoadFailed   EventName = "webview-load-failed"
	EventWebviewCrashed      EventName = "webview-crashed"
	EventWebviewUnresponsive EventName = "webview-unresponsive"
	EventWebviewResponsive   EventName = "webview-responsive"
	EventWebviewDOMReady     EventName = "webview-dom-ready"
)

// EventScope tells whether an event was emitted by the group or by a tab.
type EventScope string

const (
	// ScopeGroup marks tab-added, tab-active and tab-removed.
	ScopeGroup EventScope = "group"
	// ScopeTab marks per-tab events.
	ScopeTab EventScope = "tab"
)

// Event is the transport-friendly form of a group or tab event.
type Event struct {
	GroupID   GroupID
	Scope     EventScope
	Name      EventName
	Tab       TabSnapshot
	ActiveTab TabID
	// Detail carries the changed value (title, icon, badge) or the failure
	// description for webview events.
	Detail string
	From   Tier
	To     Tier
}
