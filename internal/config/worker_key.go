package config

type WorkerKeyStruct struct {
	SubmissionEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	SubmissionEventsQueue: "submission_events_queue",
}
