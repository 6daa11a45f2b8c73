package app

import (
	"github.com/hashchaind/hashchaind/infrastructure/logger"
	"github.com/hashchaind/hashchaind/util/panics"
)

var log = logger.RegisterSubSystem("HCHD")
var spawn = panics.GoroutineWrapperFunc(log)
