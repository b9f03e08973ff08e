package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PaymentInitiateTotal counts payment initiation outcomes.
	PaymentInitiateTotal *prometheus.CounterVec
	// PaymentVerifyTotal counts payment verification outcomes.
	PaymentVerifyTotal *prometheus.CounterVec
	// ConfirmationEmailTotal counts confirmation email delivery outcomes in the worker.
	ConfirmationEmailTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PaymentInitiateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_initiate_total",
			Help:      "Count of payment initiation outcomes.",
		}, []string{"result"})
		PaymentVerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verify_total",
			Help:      "Count of payment verification outcomes.",
		}, []string{"result"})
		ConfirmationEmailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmation_email_total",
			Help:      "Count of confirmation email delivery outcomes.",
		}, []string{"result"})
		reg.MustRegister(PaymentInitiateTotal, PaymentVerifyTotal, ConfirmationEmailTotal)
	})
}

// IncPaymentInitiate records an initiation outcome; safe before registration.
func IncPaymentInitiate(result string) {
	if PaymentInitiateTotal != nil {
		PaymentInitiateTotal.WithLabelValues(result).Inc()
	}
}

// IncPaymentVerify records a verification outcome; safe before registration.
func IncPaymentVerify(result string) {
	if PaymentVerifyTotal != nil {
		PaymentVerifyTotal.WithLabelValues(result).Inc()
	}
}

// IncConfirmationEmail records an email delivery outcome; safe before registration.
func IncConfirmationEmail(result string) {
	if ConfirmationEmailTotal != nil {
		ConfirmationEmailTotal.WithLabelValues(result).Inc()
	}
}
