package sanitize

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/odiadev/ruthie-core/core/sanitize"

var logger = otelslog.NewLogger(scopeName)
