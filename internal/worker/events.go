package worker

// IngestTask is one queued ingestion, published on ingest.task. The
// input text rides in the message; the job row only tracks progress.
type IngestTask struct {
	JobID         string                 `json:"job_id"`
	Text          string                 `json:"text"`
	PersonaID     string                 `json:"persona_id"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CorrelationID string                 `json:"correlation_id"`
}

// IngestResult reports how an ingestion ended, published on
// ingest.result. Status is "success" or "failed".
type IngestResult struct {
	JobID         string `json:"job_id"`
	PersonaID     string `json:"persona_id"`
	Status        string `json:"status"`
	ChunkCount    int    `json:"chunk_count"`
	Error         string `json:"error,omitempty"`
	CorrelationID string `json:"correlation_id"`
}
