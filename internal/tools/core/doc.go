// Package core provides the built-in filesystem tools.
//
// Tools:
//   - file_reader: read a file
//   - read_file_content_tool: read a file addressed by ~, $VAR or glob
//   - file_writer: write a file, extracting a fenced code block if present
//   - list_files_in_path: list directory entries
package core
