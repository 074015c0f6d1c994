// Package transport defines the notification sink consumed by the relay and
// the post types it carries. See transport/telegram for the implementation.
package transport
