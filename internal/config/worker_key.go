package config

type WorkerKeyStruct struct {
	CompleteAttemptsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	CompleteAttemptsQueue: "complete_attempts_queue",
}
