// Package web holds the site's HTML templates and static assets, compiled
// into the binary so the server doesn't depend on its working directory.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static
var files embed.FS

// Templates returns the templates directory.
func Templates() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err) // the path is a compile-time constant
	}
	return sub
}

// Static returns the static assets directory.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
