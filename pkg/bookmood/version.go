// Package bookmood holds build metadata for the BookMood storage module.
package bookmood

// Version is the module version reported by the CLI.
const Version = "0.1.0"
