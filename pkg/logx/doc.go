// Package logx configures pronote2telegram's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//
// Logs never go to the chat destination: the chat only receives formatted
// notifications.
package logx
