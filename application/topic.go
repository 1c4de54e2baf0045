package application

import "strings"

// ReadingsTopic returns the topic sensors publish readings on.
func ReadingsTopic(baseTopic string) string {
	return strings.TrimSuffix(baseTopic, "/") + "/readings"
}
