// Package testsum runs a project's test command and condenses its output
// into a copy-pasteable failure report.
package testsum

// Version is the testsum release version.
const Version = "0.1.0"
