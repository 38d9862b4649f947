package gblog

type nullLogger struct{}

// Null is a Logger that discards everything. Selected by the -l=false
// flag, and used by debugserver.New when it is given no logger.
var Null Logger = nullLogger{}

func (nullLogger) Infof(string, ...interface{})  {}
func (nullLogger) Errorf(string, ...interface{}) {}
func (nullLogger) Debugf(string, ...interface{}) {}
