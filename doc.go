// Package toxicity is a small 2D game engine built on [Ebitengine].
//
// A [Window] owns a tree of [Node] values and drives it: every frame it
// dispatches events, advances intervals and steps the tree depth-first, then
// renders the tree through each [Viewport].
//
// # Quick start
//
//	w, err := toxicity.NewWindow(toxicity.WindowConfig{Title: "demo"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	player := toxicity.NewContainer("player")
//	w.Root().AddChild(player)
//	log.Fatal(toxicity.Run(w))
//
// Tests and tools that never open a window call [Window.StepFrame] directly.
//
// # Concurrency
//
// Nodes may be read and reparented from any goroutine. Structural changes
// are serialized and readers see consistent snapshots of parents, children
// and placements. Window state changes such as title, size and closing are
// queued with [Window.Do] and run on a command goroutine of their own, so
// hooks and event handlers may issue them.
//
// # Collision
//
// A collision node carries a [BoundingShape] and tags. A collision manager
// node lists keys; each step it tests its own direct collision children
// against the window's collision nodes tagged with one of those keys, using
// the window's [IntersectionRegistry]. The owners hit are reported once per
// step to the manager's nearest OnCollisions ancestor.
//
// # Scenes
//
// Scene nodes carry a [SceneLifecycle]. [Window.SwitchScenes] runs the
// old scene's TransitionOut and Stop and the new scene's Initialize,
// TransitionIn and Start on a background goroutine.
//
// Sound lives in the audio subpackage.
//
// [Ebitengine]: https://ebitengine.org
package toxicity
