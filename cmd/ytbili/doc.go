// Package main hosts the ytbili CLI.
//
// Commands talk to a running ytbilid over its HTTP API when one answers and
// fall back to the queue database in the log directory otherwise, so queue
// inspection keeps working while the daemon is down. The process command runs
// a whole job in the foreground without a daemon.
package main
