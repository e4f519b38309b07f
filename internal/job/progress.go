package job

// Progress checkpoints shared by the orchestrator.
const (
	ProgressQueued     = 0
	ProgressStarting   = 5
	ProgressScenesFrom = 20
	ProgressScenesSpan = 60
	ProgressAssembling = 85
	ProgressDone       = 100
)

// Window is the progress range [Lo, Hi) reserved for one scene.
type Window struct {
	Lo int
	Hi int
}

// SceneWindow returns the window for 1-based scene index of total scenes.
func SceneWindow(index, total int) Window {
	if total <= 0 {
		return Window{Lo: ProgressScenesFrom, Hi: ProgressScenesFrom}
	}
	if index < 1 {
		index = 1
	}
	if index > total {
		index = total
	}
	return Window{
		Lo: ProgressScenesFrom + (index-1)*ProgressScenesSpan/total,
		Hi: ProgressScenesFrom + index*ProgressScenesSpan/total,
	}
}

// Clamp pins value inside the window. A zero-width window always yields Lo.
func (w Window) Clamp(value int) int {
	if w.Hi <= w.Lo || value <= w.Lo {
		return w.Lo
	}
	if value >= w.Hi {
		return w.Hi - 1
	}
	return value
}

// At maps a fraction 0..1 of the scene's work onto the window.
func (w Window) At(fraction float64) int {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return w.Clamp(w.Lo + int(fraction*float64(w.Hi-w.Lo)))
}
