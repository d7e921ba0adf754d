// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP and WebSocket transports and the data packages,
// so that handlers stay thin and every render rule lives in one place.
//
// # Dashboard rendering
//
// DashboardService turns a filter selection into a domain.Dashboard:
//
//	ds := store.Get(ctx, path)                 // cached for the process
//	filtered := ApplySelection(ds, selection)  // region, then municipalities
//	KPIs, charts, layout, table, export links  // pure derivations
//
// The dataset is read once per process and never mutated. Each request
// recomputes the derivations from scratch; nothing about a selection is
// stored between requests.
//
// # Failure policy
//
//   - Missing data file: Render returns the error. Transports show a halted
//     page built by Unavailable, or a 503 problem response.
//   - Empty selection: Render returns a halted dashboard with a warning.
//   - Boundary document unavailable: the concentration ranking takes the map
//     slot and a warning notice is attached. The fetch is retried on the next
//     render.
//
// # Health
//
// HealthService reports liveness, readiness (dataset loaded) and build
// information. A missing boundary document degrades readiness but does not
// fail it.
//
// # Testing
//
// Dependencies are interfaces so the boundary source can be mocked:
//
//	src := &MockBoundarySource{}
//	src.On("Get", mock.Anything).Return(nil, errors.New("offline"))
//	svc := NewDashboardService(cfg, path, store, src, exports, logger, nil)
package services
