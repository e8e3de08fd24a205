package spacetraveling

import "embed"

// EmbeddedAssets contains the assets shipped with every site:
// style.css, loadmore.js, comments.js, logo.svg, favicon.svg.
// They are published under /assets/.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
