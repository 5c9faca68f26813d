package logging

// NullLogger drops every message. Library callers and tests use it when no
// logger is supplied.
type NullLogger struct{}

func NewNullLogger() *NullLogger { return &NullLogger{} }

func (*NullLogger) Verbose(string, ...interface{}) {}
func (*NullLogger) Info(string, ...interface{})    {}
func (*NullLogger) Warn(string, ...interface{})    {}
func (*NullLogger) Error(string, ...interface{})   {}
