package toxicity

import (
	"errors"
	"testing"
)

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `steps`},
		{"no steps", `{"steps": []}`},
		{"unknown action", `{"steps": [{"action": "jump"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseScript([]byte(tt.data)); err == nil {
				t.Errorf("ParseScript(%s) succeeded", tt.data)
			}
		})
	}
}

func TestScriptClick(t *testing.T) {
	w, _ := newTestWindow(t)
	_, log := newTestButton(t, w, 10, 10)
	s, err := ParseScript([]byte(`{"steps": [{"action": "click", "x": 50, "y": 20}]}`))
	if err != nil {
		t.Fatal(err)
	}
	w.SetScript(s)

	w.StepFrame()
	if len(log.details) != 1 || log.details[0] != "pressed" {
		t.Errorf("after press: reported %v, want [pressed]", log.details)
	}
	w.StepFrame()
	if s.Done() {
		t.Error("Done while the release was still queued")
	}
	w.StepFrame()
	if !s.Done() {
		t.Error("Done = false after the last step")
	}
}

func TestScriptWaitThenClose(t *testing.T) {
	w, _ := newTestWindow(t)
	s, err := ParseScript([]byte(`{"steps": [{"action": "wait", "frames": 2}, {"action": "close"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	w.SetScript(s)

	w.StepFrame()
	w.StepFrame()
	select {
	case <-w.closed:
		t.Fatal("closed before the wait ended")
	default:
	}
	w.StepFrame()
	if !s.Done() {
		t.Error("Done = false after close")
	}
	if err := w.Do(testContext(t), func() {}); !errors.Is(err, ErrWindowClosed) {
		t.Errorf("Do after close = %v, want ErrWindowClosed", err)
	}
}
