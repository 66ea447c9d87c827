package config

type WorkerKeyStruct struct {
	PersistCodeQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistCodeQueue: "persist_code_queue",
}
