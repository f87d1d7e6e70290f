package deepgram

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/odiadev/ruthie-core/core/recognize/deepgram"

var logger = otelslog.NewLogger(scopeName)
