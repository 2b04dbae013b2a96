// Package directory provides an in-memory reference implementation of the
// engine's user-directory interface.
package directory
