package netadapter

import (
	"github.com/hashchaind/hashchaind/infrastructure/logger"
	"github.com/hashchaind/hashchaind/util/panics"
)

var log = logger.RegisterSubSystem("NTAR")
var spawn = panics.GoroutineWrapperFunc(log)
