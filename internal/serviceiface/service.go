package serviceiface

// Service is one independently started unit (listener, scheduler, logger).
// The app manager starts them in configured order and stops them in reverse.
type Service interface {
	Name() string
	Start() error
	Stop() error
}
