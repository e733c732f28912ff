// Package control serves the detector's local configuration surface.
//
// A single route exists: PUT /update with a configuration document as the
// body. Every other path or method answers 404 "Unidentified endpoint".
// Responses are text/plain.
//
// Updates are not applied on the HTTP goroutine. The handler hands the
// request to the main loop and waits; the loop calls ServeOne once per
// cycle, before taking that cycle's collection snapshot, so a change is
// always visible to the next collection. If the loop does not pick a
// request up within the service timeout the handler answers 503 "Busy"
// and nothing is applied.
//
//	ep, err := control.New(control.Deps{Config: cfg.Control, Applier: store})
//	ep.Start(ctx)
//	defer ep.Close()
//
//	for {
//	    ep.ServeOne(ctx)
//	    ...
//	}
package control
