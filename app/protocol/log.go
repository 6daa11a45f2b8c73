package protocol

import (
	"github.com/hashchaind/hashchaind/infrastructure/logger"
)

var log = logger.RegisterSubSystem("PROT")
