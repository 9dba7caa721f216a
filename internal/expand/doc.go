// Package expand is the host driver: it finds attributed declarations in a
// source file, runs the registered macro for each of them and splices the
// generated peers into the file right after their originals.
//
// Each declaration expands independently. Expansions run concurrently with a
// bounded worker count and are collected in source order, so the output does
// not depend on scheduling. A failing declaration produces a diagnostic and
// no peer; the other declarations of the file are unaffected.
package expand
