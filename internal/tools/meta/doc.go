// Package meta provides the tools that operate on the tool set itself.
//
// Tools:
//   - tool_creator: save new unit source to the store
//   - meta_tool_inspector: describe every registered tool
package meta
