package core

import (
	"pkt.systems/pslog"

	"pkt.systems/tabshell/schema"
	"pkt.systems/tabshell/view"
)

// groupHandle is the part of a group a tab may touch. Tabs never see the
// exported TabGroup API, so collection changes only happen through
// Activate and Close.
type groupHandle interface {
	id() schema.GroupID
	activeTab() *Tab
	setActive(t *Tab)
	remove(t *Tab)
	activateRecent()
	indexOf(t *Tab) int
	count() int
	move(t *Tab, index int)
	publish(event schema.Event)

	host() view.Host
	strip() Strip
	dispatcher() Dispatcher
	policy() Policy
	recovery() schema.RecoveryConfig
	options() GroupOptions
	logger() pslog.Logger
}

type groupOps struct {
	g *TabGroup
}

func (o groupOps) id() schema.GroupID              { return o.g.id }
func (o groupOps) activeTab() *Tab                 { return o.g.ActiveTab() }
func (o groupOps) setActive(t *Tab)                { o.g.setActive(t) }
func (o groupOps) remove(t *Tab)                   { o.g.removeTab(t) }
func (o groupOps) activateRecent()                 { o.g.activateRecent() }
func (o groupOps) indexOf(t *Tab) int              { return o.g.indexOf(t) }
func (o groupOps) count() int                      { return len(o.g.order) }
func (o groupOps) move(t *Tab, index int)          { o.g.move(t, index) }
func (o groupOps) publish(event schema.Event)      { o.g.publish(event) }
func (o groupOps) host() view.Host                 { return o.g.host }
func (o groupOps) strip() Strip                    { return o.g.strip }
func (o groupOps) dispatcher() Dispatcher          { return o.g.dispatcher }
func (o groupOps) policy() Policy                  { return o.g.policy }
func (o groupOps) recovery() schema.RecoveryConfig { return o.g.recovery }
func (o groupOps) options() GroupOptions           { return o.g.opts }
func (o groupOps) logger() pslog.Logger            { return o.g.logger }
