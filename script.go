package toxicity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ScriptStep is one action of a Script.
type ScriptStep struct {
	// Action is one of "click", "drag", "wait", "screenshot" or "close".
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// Script replays injected input, waits and screenshots across frames, for
// automated runs of a window. Attach it with Window.SetScript.
type Script struct {
	steps     []ScriptStep
	cursor    int
	waitCount int
	done      bool
}

// ParseScript reads a JSON script of the form {"steps": [...]}.
func ParseScript(data []byte) (*Script, error) {
	var doc struct {
		Steps []ScriptStep `json:"steps"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(doc.Steps) == 0 {
		return nil, errors.New("parse script: no steps")
	}
	for i, st := range doc.Steps {
		switch st.Action {
		case "click", "drag", "wait", "screenshot", "close":
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Script{steps: doc.Steps}, nil
}

// Done reports whether every step has run.
func (s *Script) Done() bool {
	return s.done
}

// SetScript attaches s to the window. Its steps run at the start of each
// frame, before input is applied. A nil s detaches the current script.
func (w *Window) SetScript(s *Script) {
	w.script.Store(s)
}

// step runs at most one action per frame. Called on the frame goroutine.
func (s *Script) step(w *Window) {
	if s.done {
		return
	}
	if w.input.Injected() > 0 {
		return
	}
	if s.waitCount > 0 {
		s.waitCount--
		return
	}
	if s.cursor >= len(s.steps) {
		s.done = true
		return
	}

	st := s.steps[s.cursor]
	s.cursor++
	w.logger.Debug("script step", "action", st.Action, "step", s.cursor)

	switch st.Action {
	case "screenshot":
		w.Screenshot(st.Label)
	case "click":
		w.InjectClick(st.X, st.Y)
	case "drag":
		w.InjectDrag(Pt(st.FromX, st.FromY), Pt(st.ToX, st.ToY), st.Frames)
	case "wait":
		if st.Frames > 0 {
			s.waitCount = st.Frames - 1
		}
	case "close":
		if err := w.Close(context.Background()); err != nil {
			w.logger.Error("script close", "error", err)
		}
	}

	if s.cursor >= len(s.steps) && s.waitCount == 0 && w.input.Injected() == 0 {
		s.done = true
	}
}
