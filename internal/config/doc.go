// Package config loads the tminus configuration file.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tminus/config.toml
//  3. If the file doesn't exist, fall back to defaults with no cards
//  4. If the file exists but fields are missing or empty, use defaults
//
// # TOML Format
//
//	[home_assistant]
//	url = "http://homeassistant.local:8123"
//	token_env = "HASS_TOKEN"     # or token = "..."
//
//	[logging]
//	path = "~/.local/state/tminus/tminus.log"
//	level = "info"
//
//	[[cards]]
//	title = "New year"
//	target_date = "2027-01-01T00:00:00"
//	show_days = true
//	show_hours = true
//
//	[[cards]]
//	title = "Laundry"
//	timer_entity = "timer.washer"
//
// target_date and creation_date accept a literal date, an entity id
// ("input_datetime.trip") or a template ("{{ ... }}"). show_* flags are
// pointers so that an absent flag can be told apart from false; a card that
// sets none of them gets the default units.
//
// Card carries validate struct tags that package validate interprets. Load
// itself only trims values; it never rejects a card.
//
// # Token
//
// An explicit token wins. Otherwise the environment variable named by
// token_env (HASS_TOKEN when unset) is read.
package config
