// Package features embeds the gherkin feature files so the runner works
// from any directory.
package features

import "embed"

//go:embed *.feature
var FS embed.FS
