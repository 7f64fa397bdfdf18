package config

const (
	// TopicIndexBuilt is the NSQ topic announcing a freshly written index and
	// docstore pair.
	TopicIndexBuilt = "catalog.index.built"
)
