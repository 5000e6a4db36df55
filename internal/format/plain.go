package format

import (
	"fmt"
	"strings"

	"pkt.systems/tabshell/schema"
)

// ActiveMarker prefixes the active tab in tab lists.
const ActiveMarker = "* "

const inactiveMarker = "  "

// PlainRenderer formats events as plain text lines.
type PlainRenderer struct{}

// NewPlainRenderer returns a default plain-text renderer.
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// FormatEvent converts a group or tab event into user-facing lines. Events
// that only matter to a graphical strip produce no lines.
func (p *PlainRenderer) FormatEvent(event schema.Event) ([]string, error) {
	label := tabLabel(event.Tab)
	switch event.Name {
	case schema.EventTabAdded:
		return []string{fmt.Sprintf("tab opened: %s", label)}, nil
	case schema.EventTabRemoved:
		return []string{fmt.Sprintf("tab closed: %s", label)}, nil
	case schema.EventTabActive:
		return []string{fmt.Sprintf("tab active: %s", label)}, nil
	case schema.EventTitleChanged:
		return []string{fmt.Sprintf("tab %d title: %s", event.Tab.ID, event.Detail)}, nil
	case schema.EventBadgeChanged:
		if event.Detail == "" {
			return nil, nil
		}
		return []string{fmt.Sprintf("tab %d badge: %s", event.Tab.ID, event.Detail)}, nil
	case schema.EventTierChanged:
		return []string{fmt.Sprintf("tab %d degraded: %s -> %s", event.Tab.ID, event.From, event.To)}, nil
	case schema.EventWebviewLoadFailed:
		return []string{withDetail(fmt.Sprintf("tab %d failed to load", event.Tab.ID), event.Detail)}, nil
	case schema.EventWebviewCrashed:
		return []string{withDetail(fmt.Sprintf("tab %d crashed", event.Tab.ID), event.Detail)}, nil
	case schema.EventWebviewUnresponsive:
		return []string{fmt.Sprintf("tab %d is not responding", event.Tab.ID)}, nil
	case schema.EventWebviewResponsive:
		return []string{fmt.Sprintf("tab %d is responding again", event.Tab.ID)}, nil
	default:
		return nil, nil
	}
}

// FormatTabs lists the tabs of a group in stacking order.
func (p *PlainRenderer) FormatTabs(group schema.GroupSnapshot) []string {
	if len(group.Tabs) == 0 {
		return []string{"no tabs"}
	}
	lines := make([]string, 0, len(group.Tabs))
	for _, tab := range group.Tabs {
		marker := inactiveMarker
		if tab.ID == group.ActiveTab {
			marker = ActiveMarker
		}
		line := fmt.Sprintf("%s%d. %s", marker, tab.Position, tabLabel(tab))
		if flags := tabFlags(tab); len(flags) > 0 {
			line += " [" + strings.Join(flags, ", ") + "]"
		}
		lines = append(lines, line)
	}
	return lines
}

func tabLabel(tab schema.TabSnapshot) string {
	title := strings.TrimSpace(tab.Title)
	if title == "" {
		title = tab.Src
	}
	if title == "" {
		title = "untitled"
	}
	return fmt.Sprintf("#%d %s", tab.ID, title)
}

func tabFlags(tab schema.TabSnapshot) []string {
	flags := []string{}
	if tab.Native {
		flags = append(flags, "native")
	} else if tab.State.Tier != schema.TierPrimary {
		flags = append(flags, tab.State.Tier.String())
	}
	if tab.State.Health == schema.HealthRecovering {
		flags = append(flags, "recovering")
	}
	if tab.Loading {
		flags = append(flags, "loading")
	}
	if tab.Busy {
		flags = append(flags, "busy")
	}
	if tab.Failed {
		flags = append(flags, "failed")
	}
	if tab.Badge != "" {
		flags = append(flags, "badge "+tab.Badge)
	}
	return flags
}

func withDetail(line, detail string) string {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return line
	}
	return line + ": " + detail
}
