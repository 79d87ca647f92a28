package core

// Logger is any leveled logger; args may carry an error, extra context maps
// or the acting user for error-reporting backends.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
