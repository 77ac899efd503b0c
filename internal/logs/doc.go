// Package logs reads the daemon run log and per-job logs for `ytbili logs`.
//
// Read returns the last lines of a file together with the offset where the
// next read should start. Follow polls from that offset and starts over at
// the top when the file shrinks, which happens when ytbilid restarts and
// repoints ytbilid.log at a fresh run log.
package logs
