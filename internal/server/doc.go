// Package server owns the listener and http.Server lifecycle shared by the
// provider adapters.
//
// Architecture:
//   - Adapters build the http.Handler (framework engine plus global stages)
//   - Server listens, serves the handler on its own goroutine and reports
//     readiness through the caller's callback
//   - Shutdown is idempotent and waits for in-flight exchanges within the
//     caller's deadline
//
// Usage:
//
//	srv := server.New(server.DefaultConfig(), logger)
//	if err := srv.Start(8080, handler, onReady); err != nil {
//	    return err
//	}
//	defer srv.Shutdown(ctx)
package server
