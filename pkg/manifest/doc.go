// Package manifest parses, validates, edits, and renders line-oriented
// dependency manifests. Each non-comment, non-blank line declares one
// package, optionally with a version constraint list or a version-control
// source locator. Comment lines naming a category (test, lint, docs) act
// as section headers for the lines that follow.
package manifest
