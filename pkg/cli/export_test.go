package cli

var (
	RunChatLoop    = runChatLoop
	PurgeCaches    = purgeCaches
	PrintDocuments = printDocuments
)
