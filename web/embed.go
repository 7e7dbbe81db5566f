// Пакет web — встроенная статика лендинга FinDocs.
package web

import "embed"

// Static — встроенные файлы лендинга.
//
//go:embed index.html
var Static embed.FS
