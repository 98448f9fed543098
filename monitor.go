package toxicity

import "github.com/hajimehoshi/ebiten/v2"

// Monitor describes a connected display.
type Monitor struct {
	Name          string
	Width, Height int
	// Current is set for the monitor showing the window.
	Current bool
}

// readMonitors lists the connected displays. Only valid while Run is active.
func readMonitors() []Monitor {
	current := ebiten.Monitor()
	var out []Monitor
	for _, m := range ebiten.AppendMonitors(nil) {
		w, h := m.Size()
		out = append(out, Monitor{Name: m.Name(), Width: w, Height: h, Current: m == current})
	}
	return out
}

// diffMonitors returns the monitors in cur but not in prev, and those in
// prev but not in cur. Monitors are matched by name.
func diffMonitors(prev, cur []Monitor) (added, removed []Monitor) {
	had := make(map[string]bool, len(prev))
	for _, m := range prev {
		had[m.Name] = true
	}
	has := make(map[string]bool, len(cur))
	for _, m := range cur {
		has[m.Name] = true
		if !had[m.Name] {
			added = append(added, m)
		}
	}
	for _, m := range prev {
		if !has[m.Name] {
			removed = append(removed, m)
		}
	}
	return added, removed
}

// Monitors returns the displays seen by the last frame. It is empty until
// the window runs.
func (w *Window) Monitors() []Monitor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Monitor(nil), w.monitors...)
}

// CurrentMonitor returns the monitor showing the window.
func (w *Window) CurrentMonitor() (Monitor, bool) {
	for _, m := range w.Monitors() {
		if m.Current {
			return m, true
		}
	}
	return Monitor{}, false
}

// updateMonitors stores cur and queues an event per connected or
// disconnected monitor. The first list stored raises no events.
func (w *Window) updateMonitors(cur []Monitor) {
	w.mu.Lock()
	prev, known := w.monitors, w.monitorsKnown
	w.monitors, w.monitorsKnown = cur, true
	w.mu.Unlock()
	if !known {
		return
	}
	added, removed := diffMonitors(prev, cur)
	for _, m := range added {
		w.logger.Info("monitor connected", "name", m.Name, "width", m.Width, "height", m.Height)
		w.events.Emit(Event{Topic: EventMonitorConnected, Payload: m})
	}
	for _, m := range removed {
		w.logger.Info("monitor disconnected", "name", m.Name)
		w.events.Emit(Event{Topic: EventMonitorDisconnected, Payload: m})
	}
}
