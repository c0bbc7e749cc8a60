package i

// Logger is the leveled component logger every service writes to.
type Logger interface {
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}
