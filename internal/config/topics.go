package config

const (
	// TopicIngestTask is the NSQ topic for queued ingestion tasks.
	TopicIngestTask = "ingest.task"

	// TopicIngestResult is the NSQ topic for ingestion results (success/failure).
	TopicIngestResult = "ingest.result"

	// WorkerChannel is the NSQ channel the backend consumers subscribe on.
	WorkerChannel = "backend"
)
