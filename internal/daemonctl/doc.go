// Package daemonctl lets the ytbili CLI talk to a running ytbilid over its
// HTTP API and assemble status reports that still work when the daemon is
// down by reading the queue database and probing dependencies locally.
package daemonctl
