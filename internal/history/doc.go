// Package history records render runs in a small SQLite database so past
// renders, their outcome and their failure kind can be listed later.
package history
