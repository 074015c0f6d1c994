// Package tgui provides small Telegram text helpers for both parse modes:
//   - HTML: H values are safe for ParseMode="HTML" (see Esc, B, JoinH)
//   - MarkdownV2: M values are safe for ParseMode="MarkdownV2" (see EscapeMD)
//
// Untrusted text always goes through an escaping constructor; only markup
// built by this package is emitted raw, so it is never escaped twice.
// HTMLToMD and SanitizeHTML convert portal rich text into either dialect.
package tgui
