package wsbridge

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/odiadev/ruthie-core/core/transport/wsbridge"

var logger = otelslog.NewLogger(scopeName)
