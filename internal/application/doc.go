// Package application wires configuration composition and logging setup for
// the runconf command, keeping the main package focused on CLI parsing.
package application
