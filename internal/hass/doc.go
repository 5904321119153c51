// Package hass is the Home Assistant collaborator used by the countdown cards.
//
// Two transports are provided. Client wraps the REST API (GET /api/states/<id>,
// POST /api/template, GET /api/). Socket speaks the WebSocket API at
// /api/websocket: it performs the auth handshake, issues a render_template
// subscription, returns the first rendered value and unsubscribes. Dialing is
// retried with exponential backoff; an auth_invalid reply stops retries.
//
// Connection bundles both behind the method set the resolver expects and
// carries a random ID so a card can detect that its backend was replaced and
// drop cached template results.
//
// Entity states "unknown" and "unavailable" are sentinels; IsSentinel reports
// them so callers can treat the entity as having no value.
package hass
