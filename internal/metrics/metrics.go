// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AdmissionOutcomes counts attendance admission decisions by outcome.
	AdmissionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "admission_outcomes_total",
		Help:      "Attendance admission decisions by outcome.",
	}, []string{"outcome"})

	// SessionsCreated counts attendance sessions opened by faculty.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "sessions_created_total",
		Help:      "Attendance sessions created.",
	})

	// ImageUploads counts Cloudinary uploads by result.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "image_uploads_total",
		Help:      "Image uploads to Cloudinary by result.",
	}, []string{"result"})

	// EmailsSent counts transactional email attempts by result.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "emails_total",
		Help:      "Transactional email attempts by result.",
	}, []string{"result"})
)
