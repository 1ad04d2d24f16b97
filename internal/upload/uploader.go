// Package upload stores listing photos and hands back a URL usable as a
// photos entry.
package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var ErrUpload = errors.New("upload failed")

type Result struct {
	URL string `json:"url"`
}

// Uploader 可能耗时较长；调用方决定是否重试
type Uploader interface {
	Upload(ctx context.Context, data []byte, fileName string) (Result, error)
}

var (
	uploadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "photo_uploads_total", Help: "Count of photo uploads"},
		[]string{"backend", "result"},
	)
	uploadLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_upload_duration_seconds",
			Help:    "Latency of photo uploads",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"},
	)
)

func init() { prometheus.MustRegister(uploadTotal, uploadLatency) }

type instrumented struct {
	backend string
	next    Uploader
}

// Instrument wraps u with upload metrics and normalizes failures to ErrUpload.
func Instrument(backend string, u Uploader) Uploader {
	return &instrumented{backend: backend, next: u}
}

func (i *instrumented) Upload(ctx context.Context, data []byte, fileName string) (Result, error) {
	start := time.Now()
	res, err := i.next.Upload(ctx, data, fileName)
	uploadLatency.WithLabelValues(i.backend).Observe(time.Since(start).Seconds())
	if err != nil {
		uploadTotal.WithLabelValues(i.backend, "error").Inc()
		if !errors.Is(err, ErrUpload) {
			err = fmt.Errorf("%w: %s: %w", ErrUpload, fileName, err)
		}
		return Result{}, err
	}
	uploadTotal.WithLabelValues(i.backend, "ok").Inc()
	return res, nil
}
