package log

const (
	KeyAppName            = "app"
	KeyAuthToken          = "authToken"
	KeyBody               = "body"
	KeyCacheKey           = "cacheKey"
	KeyCollection         = "collection"
	KeyConfig             = "config"
	KeyDelta              = "delta"
	KeyHeader             = "header"
	KeyItemCount          = "itemCount"
	KeyMirrorKey          = "mirrorKey"
	KeyOperation          = "operation"
	KeyProcess            = "process"
	KeyProductID          = "productId"
	KeyQuantity           = "quantity"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestID          = "requestId"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeySessionID          = "sessionId"
	KeySpanID             = "spanId"
	KeyStatusCode         = "statusCode"
	KeyTag                = "tag"
	KeyTargetQuantity     = "targetQuantity"
	KeyTotals             = "totals"
	KeyTraceID            = "traceId"
	KeyURL                = "url"
	KeyUserID             = "userId"
)
