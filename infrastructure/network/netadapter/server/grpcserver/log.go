package grpcserver

import (
	"github.com/hashchaind/hashchaind/infrastructure/logger"
	"github.com/hashchaind/hashchaind/util/panics"
)

var log = logger.RegisterSubSystem("TXMN")
var spawn = panics.GoroutineWrapperFunc(log)
