// Package logging sets up the process-wide structured logger. Grounded on
// github.com/sirupsen/logrus, the logging library the retrieved corpus
// reaches for (jacksonlee411-Bugs-Blossoms/go.mod).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Entry tagged with the owning service name. Every
// call site adds its own fields (saga_id, order_id, topic, ...) on top.
func New(service string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l.WithField("service", service)
}

// Saga returns a logrus.Fields pre-populated with saga and order
// correlation ids, the pair an operator greps for when a saga stalls
// (spec.md §6 "operator surface").
func Saga(sagaID, orderID string) logrus.Fields {
	return logrus.Fields{
		"saga_id":  sagaID,
		"order_id": orderID,
	}
}
