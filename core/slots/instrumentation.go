package slots

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/odiadev/ruthie-core/core/slots"

var logger = otelslog.NewLogger(scopeName)
