// Package server provides the HTTP API of the tclive daemon.
//
// # Routing
//
// [Server.Routes] builds a chi router with request IDs, real IP resolution, request logging
// ([RequestLogger]), panic recovery, and CORS. Routes under /api additionally carry a timeout.
//
//	GET  /health
//	GET  /api/scoreboard
//	GET  /api/scoreboard/rankings
//	GET  /api/scoreboard/{house}/total
//	PUT  /api/scoreboard/{house}/{sport}   {"score": 95}
//	PUT  /api/scoreboard/{house}           {"scores": {"Cricket": 90}}
//	GET  /api/live
//	POST /api/live/check | start | stop
//	POST /api/live/load                    {"video_id": "..."}
//	POST /api/notify/enable | test
//	GET  /api/notify/status
//	GET  /ws
//	GET  /metrics
//
// Components are injected through the [Scoreboard], [LiveController], and [Notifier] interfaces.
// A nil component leaves its routes unregistered.
//
// # Errors
//
// Failures are answered with an [ErrorResponse]. The status code follows the wrapped sentinel
// from the shared package: unknown houses and sports are 404, bad scores and bodies are 400,
// rate-limited live checks are 429.
package server
