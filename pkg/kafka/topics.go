package kafka

import "fmt"

// TopicPrefix namespaces every topic the storefront produces or consumes.
const TopicPrefix = "applestore"

// DLQTopicPrefix is prepended to a source topic to name its dead-letter topic.
const DLQTopicPrefix = TopicPrefix + ".dlq"

// Topic builds a topic name such as "applestore.basket.updated".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}

// DLQTopic returns the dead-letter topic for originalTopic.
func DLQTopic(originalTopic string) string {
	return fmt.Sprintf("%s.%s", DLQTopicPrefix, originalTopic)
}
