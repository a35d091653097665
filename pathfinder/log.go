package pathfinder

import "github.com/sirupsen/logrus"

var log = logrus.StandardLogger()

// SetLogger lets the host process install a configured logrus logger
// (level, formatter) before any FindPath call runs.
func SetLogger(l *logrus.Logger) { log = l }
