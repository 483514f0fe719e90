// Package pipeline sanitizes free-text answers before they are stored.
//
// Text passes through ordered stages. Cleaning stages transform the text and
// are re-applied until the output stops changing, which makes the whole
// pipeline idempotent:
//
//   - normalize: Unicode NFC, every whitespace rune becomes a plain space
//   - strip_contacts: URLs, e-mail addresses and phone numbers are removed
//   - filter_charset: only letters of the configured scripts, ASCII digits, space and
//     , . : ; - ( ) ! ? " are kept
//   - strip_domains: bare domain-like tokens (site.ru) are removed
//
// Policy stages then decide whether the text is acceptable:
//
//   - reject_empty: ErrEmpty when nothing is left
//   - reject_banned: *DeniedError when a moderation word occurs (case-insensitive)
//
// Accepted text is truncated to the configured length.
package pipeline
