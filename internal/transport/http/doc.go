// Package http implements the HTTP surface of the Pronaf dashboard.
// Handlers are thin: they parse the filter selection from the query string,
// delegate to the dashboard service and format the result.
//
// # Routes
//
//	GET  /                          dashboard page (html/template + Plotly.js)
//	GET  /api/dashboard             render description as JSON
//	GET  /api/filters               region and cascading municipality options
//	GET  /api/export.{csv|xlsx}     download of the filtered table
//	GET  /api/charts/{chart}.png    server-side image of one chart
//	GET  /api/geo/boundaries        cached municipal boundary document
//	GET  /api/geo/locate            municipality under a lon/lat point
//	POST /api/logs                  errors reported by the page
//	GET  /api/health[/ready|/live]  health probes
//	GET  /api/version               build information
//	GET  /ws                        interactive session
//	GET  /metrics                   Prometheus scrape
//
// # Selection parameters
//
// Every selection-aware route accepts region and municipality. The
// municipality parameter may be repeated or hold a comma separated list.
// Absent parameters, "Todas" and "Todos" select everything.
//
// # Error Handling
//
// Failures are answered with RFC 7807 problem details by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/not-found",
//	    "title": "Dataset Unavailable",
//	    "status": 503,
//	    "detail": "Arquivo não encontrado: data/df_merged.csv",
//	    "instance": "/api/dashboard"
//	}
//
// A selection that matches no records is not an error: /api/dashboard
// answers 200 with a halted dashboard and a warning notice.
package http
