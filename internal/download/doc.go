// Package download fetches YouTube videos with yt-dlp.
//
// NormalizeURL accepts the usual YouTube link shapes and bare video ids.
// Client runs yt-dlp with line-buffered output so download percentages can be
// streamed into job progress, and resolves the final file from the --print
// line or, failing that, from the merger and destination log lines.
package download
