// Package research provides built-in tools backed by third-party APIs.
//
// Tools:
//   - gemini_query_tool: ask Google Gemini a question
package research
