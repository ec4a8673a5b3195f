// Package shell provides the built-in tools that spawn external processes.
//
// Tools:
//   - go_runner_tool: run a Go program file with `go run`
//   - exiftool_interface: read or write media metadata with ExifTool
package shell
