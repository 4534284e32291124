// Package media reports which breakpoints are currently active as a
// de-duplicated, priority-ordered stream, and swaps in a print layout while a
// print operation is in progress.
//
// The pieces, leaves first:
//
//   - Tracker registers conditions with a mediaquery.Matcher (one listener per
//     condition) and broadcasts every transition as a Change.
//   - PrintHook is a state machine fed by the tracker's raw changes and by
//     external begin/end print signals. While printing it hands the host's
//     LayoutTarget the print queue and restores the host afterwards.
//   - Observer recomputes the full activation list whenever something activates,
//     annotates it from the breakpoint registry and emits it on each Stream
//     unless it carries the same conditions as the previous emission.
//
// Typical wiring:
//
//	reg := breakpoint.NewRegistry(breakpoint.Default())
//	viewport := mediaquery.NewViewport(mediaquery.Environment{Width: 1024, Height: 768})
//	tracker := media.NewTracker(viewport)
//	hook := media.NewPrintHook(reg, host)
//	hook.RegisterPrintSignals(viewport)
//	obs := media.NewObserver(reg, tracker, media.WithPrintHook(hook))
//
//	stream := obs.Stream(ctx)
//	for changes := range stream.Events() {
//		fmt.Println(changes[0].Name)
//	}
package media
