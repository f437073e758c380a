// Package app wires the snippet manager to the reference engine.
//
// A Session owns one engine, the Lua evaluator installed in it and a
// snippet manager bound to it. Every user edit goes through the session,
// which applies it to the engine and hands the recorded changes to the
// manager, so active snippets always see the edits they did not make
// themselves:
//
//	sess, err := app.NewSession(cfg)
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	sess.Type("fn")
//	sess.Tab(false)   // expand
//	sess.Type("main") // fills stop 1
//
// When the configuration enables watching, Watch reloads the definition
// files on change.
//
// The Playground draws a session on a backend.Backend and maps keys to
// session operations.
package app
