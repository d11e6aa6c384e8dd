// Package resources embeds the default prompts, messages, images, persona
// list and quiz list shipped with the bot.
package resources

import "embed"

// FS holds the default resources. A directory configured under
// resources.dir overrides individual files.
//
//go:embed prompts messages images personas.yaml quiz.yaml
var FS embed.FS
