//go:build !embed_model

package provider

import "embed"

// embeddedModelFS is empty without the embed_model build tag.
var embeddedModelFS embed.FS

const hasEmbeddedModel = false
