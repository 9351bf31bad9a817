// Package web embeds the chart playground page served by the API at "/".
//
// The page posts pasted progress records to /api/v1/charts/progress and
// shows the returned SVG, so charts can be checked without the CLI.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var dist embed.FS

// DistFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func DistFS() fs.FS {
	sub, err := fs.Sub(dist, "static")
	if err != nil {
		// static/ is embedded at compile time; Sub only fails on a bad path.
		panic("web.DistFS: " + err.Error())
	}
	return sub
}
