// Package fileops provides filesystem safety helpers shared across the
// application: path containment under a configured root directory and
// pre-read access validation.
//
// Every document read performed on behalf of an external caller must first
// resolve its target through ResolveWithin so that traversal sequences and
// absolute paths can never escape the document root.
package fileops
