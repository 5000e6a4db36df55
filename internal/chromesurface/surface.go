package chromesurface

import (
	"bytes"
	"context"
	"errors"
	"html"
	"html/template"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"pkt.systems/pslog"

	"pkt.systems/tabshell/schema"
	"pkt.systems/tabshell/view"
)

// errorPagePrefix is the url Chromium commits when a frame is refused.
const errorPagePrefix = "chrome-error://"

type surface struct {
	ctx    context.Context
	cancel context.CancelFunc
	kind   view.SurfaceKind
	attrs  view.Attributes
	cfg    Config
	log    pslog.Logger

	mu           sync.Mutex
	fn           func(view.Signal)
	last         view.Source
	url          string
	mainFrame    cdp.FrameID
	mainRequests map[network.RequestID]struct{}
	crashed      bool
	hung         bool
}

func newSurface(ctx context.Context, cancel context.CancelFunc, kind view.SurfaceKind, attrs view.Attributes, cfg Config, log pslog.Logger) *surface {
	return &surface{
		ctx:          ctx,
		cancel:       cancel,
		kind:         kind,
		attrs:        attrs.Clone(),
		cfg:          cfg,
		log:          log,
		mainRequests: make(map[network.RequestID]struct{}),
	}
}

func (s *surface) OnSignal(fn func(view.Signal)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = fn
}

func (s *surface) emit(sig view.Signal) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn(sig)
	}
}

// Load starts rendering src and returns once the request is issued.
// Failures after that point arrive as signals.
func (s *surface) Load(src view.Source) error {
	if err := s.ctx.Err(); err != nil {
		return errors.Join(schema.ErrNotAttached, err)
	}
	action, err := s.loadAction(src)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.last = src
	if src.URL != "" {
		s.url = src.URL
	}
	s.mu.Unlock()
	go s.run("load", action, s.kind != view.SurfaceBrowsing)
	return nil
}

func (s *surface) loadAction(src view.Source) (chromedp.Action, error) {
	switch {
	case s.kind == view.SurfaceFrame:
		if src.URL == "" {
			return nil, schema.ErrEmptyInput
		}
		doc, err := frameDocument(src.URL, s.attrs)
		if err != nil {
			return nil, err
		}
		return setContent(doc), nil
	case src.HTML != "":
		return setContent(src.HTML), nil
	case src.URL != "":
		return chromedp.Navigate(src.URL), nil
	default:
		return nil, schema.ErrEmptyInput
	}
}

// run executes action off the dispatcher. Document and frame loads report
// completion themselves since replacing content fires no load event.
func (s *surface) run(op string, action chromedp.Action, signalDone bool) {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.CommandTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, action); err != nil {
		if s.ctx.Err() == nil {
			s.log.Debug("chrome surface command failed", "op", op, "err", err)
		}
		return
	}
	if signalDone {
		s.emit(view.Signal{Kind: view.SignalLoadDone, MainFrame: true})
	}
}

func (s *surface) Reload() error {
	if err := s.ctx.Err(); err != nil {
		return errors.Join(schema.ErrNotAttached, err)
	}
	if s.kind != view.SurfaceBrowsing {
		s.mu.Lock()
		last := s.last
		s.mu.Unlock()
		return s.Load(last)
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.reloadTimeout())
	defer cancel()
	return chromedp.Run(ctx, page.Reload())
}

// SetVisible brings the target to the front. Headless targets cannot be
// hidden, so false only records the state.
func (s *surface) SetVisible(visible bool) error {
	if !visible {
		return nil
	}
	if err := s.ctx.Err(); err != nil {
		return nil
	}
	go s.run("bring to front", page.BringToFront(), false)
	return nil
}

// Focus is a no-op: the front target owns input focus.
func (s *surface) Focus() error {
	return nil
}

func (s *surface) Close() error {
	s.cancel()
	return nil
}

func (s *surface) listen(ev any) {
	for _, sig := range s.translate(ev) {
		s.emit(sig)
	}
	if _, ok := ev.(*page.EventLoadEventFired); ok && s.kind == view.SurfaceBrowsing {
		go s.fetchTitle()
	}
}

// translate maps a DevTools event to surface signals and tracks the main
// frame. It never blocks.
func (s *surface) translate(ev any) []view.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev := ev.(type) {
	case *inspector.EventTargetCrashed:
		s.crashed = true
		return []view.Signal{{Kind: view.SignalCrashed, URL: s.url, MainFrame: true}}
	case *page.EventFrameNavigated:
		if ev.Frame == nil {
			return nil
		}
		if ev.Frame.ParentID == "" {
			s.mainFrame = ev.Frame.ID
			if s.kind != view.SurfaceBrowsing {
				return nil
			}
			s.url = ev.Frame.URL
			return []view.Signal{{Kind: view.SignalNavigated, URL: ev.Frame.URL, MainFrame: true}}
		}
		if s.kind == view.SurfaceFrame && strings.HasPrefix(ev.Frame.URL, errorPagePrefix) {
			return []view.Signal{{Kind: view.SignalError, URL: s.url, Description: "frame refused to display the document"}}
		}
	case *page.EventFrameStartedLoading:
		if s.isMain(ev.FrameID) && s.kind == view.SurfaceBrowsing {
			return []view.Signal{{Kind: view.SignalLoadStart, URL: s.url, MainFrame: true}}
		}
	case *page.EventDomContentEventFired:
		return []view.Signal{{Kind: view.SignalDOMReady, URL: s.url, MainFrame: true}}
	case *page.EventLoadEventFired:
		if s.kind != view.SurfaceBrowsing {
			return nil
		}
		s.crashed = false
		return []view.Signal{{Kind: view.SignalLoadDone, URL: s.url, MainFrame: true}}
	case *network.EventRequestWillBeSent:
		if ev.Type == network.ResourceTypeDocument && s.isMain(ev.FrameID) {
			s.mainRequests[ev.RequestID] = struct{}{}
		}
	case *network.EventLoadingFinished:
		delete(s.mainRequests, ev.RequestID)
	case *network.EventLoadingFailed:
		if ev.Type != network.ResourceTypeDocument || ev.Canceled {
			delete(s.mainRequests, ev.RequestID)
			return nil
		}
		_, main := s.mainRequests[ev.RequestID]
		delete(s.mainRequests, ev.RequestID)
		switch {
		case s.kind == view.SurfaceFrame && !main:
			return []view.Signal{{Kind: view.SignalError, URL: s.url, Description: ev.ErrorText}}
		case s.kind == view.SurfaceBrowsing && main:
			return []view.Signal{{Kind: view.SignalLoadFailed, URL: s.url, Description: ev.ErrorText, MainFrame: true}}
		}
	}
	return nil
}

func (s *surface) isMain(id cdp.FrameID) bool {
	return s.mainFrame == "" || s.mainFrame == id
}

func (s *surface) fetchTitle() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.CommandTimeout)
	defer cancel()
	var title string
	if err := chromedp.Run(ctx, chromedp.Title(&title)); err != nil {
		return
	}
	if title != "" {
		s.emit(view.Signal{Kind: view.SignalTitle, Title: title, MainFrame: true})
	}
}

// watchdog pings the renderer and reports hangs. It exits with the target.
func (s *surface) watchdog() {
	ticker := time.NewTicker(s.cfg.HangInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
		s.mu.Lock()
		crashed := s.crashed
		s.mu.Unlock()
		if crashed {
			continue
		}
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.HangTimeout)
		var res int
		err := chromedp.Run(ctx, chromedp.Evaluate(`1`, &res))
		cancel()
		if s.ctx.Err() != nil {
			return
		}
		if sig, ok := s.livenessResult(err); ok {
			s.emit(sig)
		}
	}
}

// livenessResult turns a liveness check outcome into a state change signal.
func (s *surface) livenessResult(err error) (view.Signal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hung := errors.Is(err, context.DeadlineExceeded)
	if hung == s.hung {
		return view.Signal{}, false
	}
	s.hung = hung
	if hung {
		s.log.Warn("chrome surface unresponsive", "url", s.url)
		return view.Signal{Kind: view.SignalUnresponsive, URL: s.url, MainFrame: true}, true
	}
	return view.Signal{Kind: view.SignalResponsive, URL: s.url, MainFrame: true}, true
}

func setContent(doc string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
	})
}

var frameTemplate = template.Must(template.New("frame").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<style>html, body { margin: 0; height: 100%; } iframe { width: 100%; height: 100%; border: none; position: absolute; top: 0; left: 0; }</style>
</head>
<body><iframe src="{{.URL}}"{{range .Attrs}} {{.}}{{end}}></iframe></body>
</html>`))

var attrName = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// frameDocument renders the sandboxed wrapper page embedding url.
// Attribute values are escaped here; names outside a plain lower-case set
// and event handlers are dropped.
func frameDocument(url string, attrs view.Attributes) (string, error) {
	list := make([]template.HTMLAttr, 0, len(attrs))
	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		if key == "src" || !attrName.MatchString(key) || strings.HasPrefix(key, "on") {
			continue
		}
		list = append(list, template.HTMLAttr(key+`="`+html.EscapeString(attrs[key])+`"`))
	}
	var buf bytes.Buffer
	if err := frameTemplate.Execute(&buf, struct {
		URL   string
		Attrs []template.HTMLAttr
	}{url, list}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
