// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package paint

import (
	"github.com/danjacques/golightpaint/lightpaint"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	paintingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lightpaint_painting",
		Help: "Set to 1 while a pass or replay is in progress.",
	})

	passCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lightpaint_passes",
		Help: "Count of painting passes, by kind.",
	}, []string{"kind"})

	frameCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightpaint_frames",
		Help: "Count of frames written to the strip.",
	})

	sentBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightpaint_sent_bytes",
		Help: "Count of bytes written to the strip.",
	})

	writeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightpaint_write_errors",
		Help: "Count of failed strip writes.",
	})

	recordErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightpaint_record_errors",
		Help: "Count of frames that could not be recorded.",
	})

	powerScaleGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lightpaint_power_scale",
		Help: "Brightness scale applied to the current image to meet its power budget.",
	})

	estimatedPeakGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lightpaint_estimated_peak_ma",
		Help: "Estimated peak column current of the current image before scaling, in mA.",
	})

	estimatedAverageGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lightpaint_estimated_average_ma",
		Help: "Estimated average column current of the current image before scaling, in mA.",
	})
)

// RegisterMonitoring registers all of this package's monitoring metrics.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(
		paintingGauge,
		passCount,
		frameCount,
		sentBytes,
		writeErrors,
		recordErrors,

		// Power
		powerScaleGauge,
		estimatedPeakGauge,
		estimatedAverageGauge,
	)
}

func publishStats(st lightpaint.Stats) {
	powerScaleGauge.Set(st.Scale)
	estimatedPeakGauge.Set(st.EstimatedPeak)
	estimatedAverageGauge.Set(st.EstimatedAverage)
}
