package core

import "embed"

// apiDocs holds the OpenAPI specifications generated by the api_build_tool.
//
//go:embed assets/doc
var apiDocs embed.FS

// apiTemplates holds the HTML templates for the documentation pages.
//
//go:embed assets/tpl
var apiTemplates embed.FS
