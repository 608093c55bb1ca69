package ports

// Recorder define el puerto de métricas del motor.
type Recorder interface {
	TransferTransition(status string)
	ConflictRetry(op string)
	ConflictExhausted(op string)
	BulkOperation(op string, succeeded, failed int)
	ReservationOutcome(outcome string)
}

// NopRecorder descarta todas las métricas.
type NopRecorder struct{}

func (NopRecorder) TransferTransition(string)      {}
func (NopRecorder) ConflictRetry(string)           {}
func (NopRecorder) ConflictExhausted(string)       {}
func (NopRecorder) BulkOperation(string, int, int) {}
func (NopRecorder) ReservationOutcome(string)      {}
