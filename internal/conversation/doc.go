// Package conversation provides the per-chat workflow state and its stores.
// Conversations are created lazily and never destroyed; returning to Initial
// with cleared media is the reset.
package conversation
