// Package resolve turns card configuration values into literals.
//
// A value is one of three things. A template ("{{ ... }}") is rendered by
// Home Assistant, first over the WebSocket and then over REST when that
// fails; results are cached per template string for TemplateTTL and
// concurrent renders of the same template share one request. An entity
// reference ("sensor.next_alarm") is replaced by the entity's state, with
// any trailing UTC offset removed from timestamps so they read as local wall
// clock. Anything else is returned unchanged.
//
// When a template renders to nothing useful (unknown, unavailable, empty,
// None) the resolver looks for a default written into the template itself,
// such as `x or 'N/A'` or `a if cond else 'later'`, via ExtractFallback. It
// does not evaluate expressions; that is always Home Assistant's job.
//
// The cache belongs to a Resolver, and a Resolver to a single card. It is
// cleared by Reset and whenever SetBackend installs a different connection.
package resolve
