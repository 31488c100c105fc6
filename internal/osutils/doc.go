// Package osutils wraps the platform process helpers used by the server.
package osutils
