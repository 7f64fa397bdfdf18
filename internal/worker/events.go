package worker

// IndexBuiltEvent announces a validated index and docstore pair written by
// the build command.
type IndexBuiltEvent struct {
	IndexPath    string `json:"index_path"`
	DocstorePath string `json:"docstore_path"`
	Records      int    `json:"records"`
	Dimension    int    `json:"dimension"`

	CorrelationID string `json:"correlation_id"`
}
