package circuitbreak

import "github.com/resumehero/interviewd/internal/logging"

var CircuitBreakChan chan string

const (
	DBService            = "database"
	VoiceService         = "voice_provider"
	ScorerService        = "resume_scorer"
	MinioService         = "object_store"
	KafkaProducerService = "kafka_producer"
)

func Init() {
	CircuitBreakChan = make(chan string)
}

func TriggerError(service string) {
	if CircuitBreakChan == nil {
		logging.Logger.Fatal("interviewd app is not created")
	}

	CircuitBreakChan <- service
}
