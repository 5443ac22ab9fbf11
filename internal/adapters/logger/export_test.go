// export_test.go exports private functions for white-box testing.
package logger

// CollectErrorEntries returns the messages and metadata of each link in err's chain.
func CollectErrorEntries(err error) ([]string, []map[string]any) {
	entries := collectErrorEntries(err)
	messages := make([]string, len(entries))
	metadata := make([]map[string]any, len(entries))
	for i, e := range entries {
		messages[i] = e.message
		metadata[i] = e.metadata
	}
	return messages, metadata
}

// FormatError renders err the way the pretty logger does.
func FormatError(err error) string {
	return formatErrorEntries(collectErrorEntries(err))
}
