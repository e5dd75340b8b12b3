// Package moderation redacts sensitive words from user content by asking an
// upstream chat-completion model. Results can be cached in Redis.
package moderation
