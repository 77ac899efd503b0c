// Package notifications delivers workflow events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. The jobs, queue
// and errors switches in [notifications] silence whole event groups.
package notifications
