// Package websocket serves the interactive dashboard session.
//
// Each page opens one connection. The page sends selection:update whenever
// the region or municipality filters change and receives a dashboard:render
// reply built by the dashboard service. filters:request returns only the
// filter panel, and ping is answered with pong.
//
// The Hub owns the set of open sessions and is the only goroutine that adds
// or removes them. Every Client runs a read pump, which dispatches frames in
// arrival order, and a write pump, which drains the outbound queue and sends
// keep-alive pings. A full queue drops the message instead of blocking the
// hub.
package websocket
