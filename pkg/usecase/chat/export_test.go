package chat

var (
	ParseDecision        = parseDecision
	ParseSelection       = parseSelection
	IsCacheNotFoundError = isCacheNotFoundError
)
