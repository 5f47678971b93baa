// Package workspace owns the build output directory: it resets the directory
// at the start of every build and copies asset trees and single files into it.
//
// Every operation here is fatal on failure; callers do not retry.
package workspace
