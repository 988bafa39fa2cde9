package utils

import (
	"sync/atomic"

	"go.mongodb.org/mongo-driver/event"
)

type MongoPoolStats struct {
	Open       int64 `json:"open"`
	CheckedOut int64 `json:"checkedOut"`
}

var poolStats struct {
	open       atomic.Int64
	checkedOut atomic.Int64
}

// MongoPoolMonitor keeps connection pool counters for the health endpoint
// and the mongo_pool_connections gauge.
func MongoPoolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			switch e.Type {
			case event.ConnectionCreated:
				poolStats.open.Add(1)
			case event.ConnectionClosed:
				poolStats.open.Add(-1)
			case event.GetSucceeded:
				poolStats.checkedOut.Add(1)
			case event.ConnectionReturned:
				poolStats.checkedOut.Add(-1)
			default:
				return
			}
			MongoPoolConnections.WithLabelValues("open").Set(float64(poolStats.open.Load()))
			MongoPoolConnections.WithLabelValues("checked_out").Set(float64(poolStats.checkedOut.Load()))
		},
	}
}

func GetMongoPoolStats() MongoPoolStats {
	return MongoPoolStats{
		Open:       poolStats.open.Load(),
		CheckedOut: poolStats.checkedOut.Load(),
	}
}
