package request

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Request is the shared REST client for venue adapters and the notifier.
// No retry here: the router never retries venue calls on its own, callers
// opt in through the retry package instead.
var Request = resty.New().SetTransport(&http.Transport{
	Proxy: http.ProxyFromEnvironment, // 通用适配环境变量
}).SetTimeout(15 * time.Second)
