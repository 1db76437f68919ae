package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ember_rooms_created_total",
		Help: "Rooms created, by room type.",
	}, []string{"type"})

	RoomsDestroyed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ember_rooms_destroyed_total",
		Help: "Rooms explicitly destroyed. Passive expiry is not counted.",
	})

	JoinAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ember_join_attempts_total",
		Help: "Admission attempts, by outcome (admitted, rejoined, full).",
	}, []string{"outcome"})

	Leaves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ember_leaves_total",
		Help: "Leave signals processed.",
	})

	Extends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ember_extends_total",
		Help: "TTL extension requests, by result (extended, max_reached).",
	}, []string{"result"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ember_events_published_total",
		Help: "Room events published to the bus, by kind.",
	}, []string{"kind"})
)
