// Package tools implements the typepaste MCP tools. Handlers translate tool
// input into codegen requests and pipeline errors into CodedErrors.
package tools

// MimeJSON is the MIME type of JSON resource contents.
const MimeJSON = "application/json"
