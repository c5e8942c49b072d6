// Package watch runs tasks when files under their bindings change.
//
// Each binding has its own worker. Events are debounced over a quiet window,
// and events arriving while the bound task runs collapse into one follow-up
// run. A failing task is logged and watching continues. Roots that fsnotify
// cannot observe are polled instead.
package watch
